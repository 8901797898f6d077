package analysis

import (
	"log/slog"

	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Aggregate merges per-party analyses into one complete result. Missing
// parties are filled with the no-position default; shape violations are an
// internal fault, logged and replaced with the default rather than surfaced
// to the caller.
func Aggregate(analyses map[party.Party]PartyAnalysis, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	result := make(Result, len(party.All()))
	for _, p := range party.All() {
		a, ok := analyses[p]
		if !ok {
			logger.Error("Missing party analysis, filling default", "party", p.Key())
			result[p.Key()] = NoPosition()
			continue
		}
		if err := validateShape(a); err != nil {
			logger.Error("Invalid party analysis, replacing with default", "party", p.Key(), "error", err)
			result[p.Key()] = NoPosition()
			continue
		}
		if a.Citations == nil {
			a.Citations = []Citation{}
		}
		result[p.Key()] = a
	}
	return result
}
