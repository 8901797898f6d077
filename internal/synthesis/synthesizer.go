// Package synthesis turns a statement plus retrieved manifesto evidence into
// a structured per-party judgment via a completion service. The service is
// an untrusted boundary: its output is validated, clamped and filtered
// before it enters the data model.
package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/wahlkompass/wahlkompass/internal/analysis"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// MaxCitations bounds how many citations one party's analysis carries.
const MaxCitations = 3

// neutralAgreement caps a judgment whose citation chain collapsed.
const neutralAgreement = 50

// Completer requests a structured judgment from the completion service and
// returns the raw JSON payload.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer produces a PartyAnalysis from a statement and evidence.
type Synthesizer struct {
	completer        Completer
	maxEvidenceChars int
	logger           *slog.Logger
}

var _ analysis.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer creates a Synthesizer. maxEvidenceChars bounds the evidence
// context handed to the completion service.
func NewSynthesizer(completer Completer, maxEvidenceChars int, logger *slog.Logger) *Synthesizer {
	if maxEvidenceChars <= 0 {
		maxEvidenceChars = 12000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		completer:        completer,
		maxEvidenceChars: maxEvidenceChars,
		logger:           logger,
	}
}

// Synthesize judges the statement against the party's evidence. Without
// evidence it returns the no-position analysis immediately, skipping the
// completion call. Provider failure after retries degrades to the
// unavailable analysis; it never propagates an error to the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, statement string, p party.Party, hits []index.Hit) analysis.PartyAnalysis {
	if len(hits) == 0 {
		return analysis.NoPosition()
	}

	evidence := s.selectEvidence(hits)
	prompt := buildPrompt(p, statement, evidence)

	raw, err := s.completeWithRetry(ctx, prompt)
	if err != nil {
		s.logger.Warn("Completion failed after retries", "party", p.Key(), "error", err)
		return analysis.Unavailable()
	}

	judged, err := parseJudgment(raw)
	if err != nil {
		s.logger.Warn("Completion returned malformed judgment", "party", p.Key(), "error", err)
		return analysis.Unavailable()
	}

	return s.validate(p, judged, evidence)
}

// selectEvidence keeps the top hits within the evidence budget, truncating
// lowest-ranked hits first. At least one hit is always kept.
func (s *Synthesizer) selectEvidence(hits []index.Hit) []index.Hit {
	var kept []index.Hit
	used := 0
	for _, hit := range hits {
		if len(kept) > 0 && used+len(hit.Chunk.Text) > s.maxEvidenceChars {
			break
		}
		kept = append(kept, hit)
		used += len(hit.Chunk.Text)
	}
	return kept
}

// judgment is the raw shape requested from the completion service.
// Agreement is a float so that a model answering 75.0 parses; it is rounded
// and clamped afterwards.
type judgment struct {
	Agreement   float64            `json:"agreement"`
	Explanation string             `json:"explanation"`
	Citations   []judgmentCitation `json:"citations"`
}

type judgmentCitation struct {
	Text string `json:"text"`
	Page *int   `json:"page"`
}

func parseJudgment(raw string) (*judgment, error) {
	var j judgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("parse judgment: %w", err)
	}
	return &j, nil
}

// validate repairs trivially correctable fields and drops citations not
// traceable to the supplied evidence.
func (s *Synthesizer) validate(p party.Party, j *judgment, evidence []index.Hit) analysis.PartyAnalysis {
	a := analysis.PartyAnalysis{
		Agreement:   clamp(int(j.Agreement+0.5), 0, 100),
		Explanation: strings.TrimSpace(j.Explanation),
		Citations:   []analysis.Citation{},
	}
	if a.Explanation == "" {
		a.Explanation = "Keine Erklärung verfügbar."
	}

	dropped := 0
	for _, c := range j.Citations {
		if len(a.Citations) == MaxCitations {
			break
		}
		chunk, ok := traceToChunk(c.Text, evidence)
		if !ok {
			s.logger.Warn("Dropping untraceable citation", "party", p.Key())
			dropped++
			continue
		}
		a.Citations = append(a.Citations, chunkCitation(c.Text, chunk))
	}

	// A judgment without usable citations still needs traceable evidence
	// behind it: cite the strongest hit directly. When the model's own
	// citations all failed tracing, its confidence is unsubstantiated, so
	// the score is capped at neutral as well.
	if len(a.Citations) == 0 {
		if dropped > 0 && a.Agreement > neutralAgreement {
			s.logger.Warn("All citations untraceable, capping score",
				"party", p.Key(), "agreement", a.Agreement)
			a.Agreement = neutralAgreement
		}
		top := evidence[0].Chunk
		a.Citations = append(a.Citations, chunkCitation(excerpt(top.Text), top))
	}

	return a
}

// traceToChunk finds the evidence chunk a cited text came from. The match
// is a normalized substring check in either direction, since models tend to
// trim or lightly reflow quoted passages.
func traceToChunk(text string, evidence []index.Hit) (index.Chunk, bool) {
	needle := normalize(text)
	if needle == "" {
		return index.Chunk{}, false
	}
	for _, hit := range evidence {
		hay := normalize(hit.Chunk.Text)
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return hit.Chunk, true
		}
	}
	return index.Chunk{}, false
}

func chunkCitation(text string, chunk index.Chunk) analysis.Citation {
	c := analysis.Citation{
		Text:   strings.TrimSpace(text),
		Source: chunk.Source,
		Page:   chunk.Page,
	}
	if chunk.Link != "" {
		link := chunk.Link
		c.Link = &link
	}
	return c
}

// excerpt returns the first sentence of a chunk, or the whole chunk when it
// has no sentence boundary.
func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 && idx+1 < len(text) {
		return text[:idx+1]
	}
	return text
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// completeWithRetry calls the completion service with bounded exponential
// backoff. Only rate limiting is retried; other provider errors fail fast.
// Context cancellation stops the retries.
func (s *Synthesizer) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	var raw string

	operation := func() error {
		var err error
		raw, err = s.completer.Complete(ctx, prompt)
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return raw, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
