package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wahlkompass/wahlkompass/internal/analysis"
)

// analyzeRequest is the HTTP request body for POST /analyze.
type analyzeRequest struct {
	Statement string `json:"statement"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewAnalyzeHandler creates the HTTP handler for POST /analyze. On success
// it responds with the party-keyed analysis mapping. Input errors map to
// 400, statement-embedding failure to 502; per-party failures are already
// resolved to default entries and never reach this layer as errors.
func NewAnalyzeHandler(analyzer Analyzer, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		result, err := analyzer.Analyze(r.Context(), req.Statement)
		if err != nil {
			switch {
			case errors.Is(err, analysis.ErrEmptyStatement), errors.Is(err, analysis.ErrStatementTooLong):
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			case errors.Is(err, analysis.ErrEmbeddingFailed):
				logger.Error("Statement embedding failed", "error", err)
				writeJSON(w, http.StatusBadGateway, errorResponse{Error: "embedding service unavailable"})
			default:
				logger.Error("Analysis failed", "error", err)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
