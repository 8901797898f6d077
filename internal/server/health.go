package server

import (
	"context"
	"net/http"
	"time"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Index       string `json:"index"`
	TotalChunks int    `json:"total_chunks"`
	Timestamp   string `json:"timestamp"`
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. It
// probes the index store and returns appropriate status codes.
func NewHealthHandler(store index.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		total := 0
		var probeErr error
		for _, p := range party.All() {
			n, err := store.Count(ctx, p)
			if err != nil {
				probeErr = err
				break
			}
			total += n
		}

		if probeErr != nil {
			response.Status = "unhealthy"
			response.Index = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}

		response.Status = "healthy"
		response.Index = "connected"
		response.TotalChunks = total
		writeJSON(w, http.StatusOK, response)
	}
}
