package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wahlkompass/wahlkompass/internal/analysis"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

// flakyCompleter is rate limited on its first call and succeeds afterwards.
type flakyCompleter struct {
	response string
	calls    int
}

func (f *flakyCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.calls == 1 {
		return "", &openai.Error{StatusCode: 429}
	}
	return f.response, nil
}

func evidenceHits() []index.Hit {
	page := 12
	link := "https://example.org/wahlprogramm.pdf"
	return []index.Hit{
		{
			Chunk: index.Chunk{
				ID:     "c1",
				Party:  party.Gruene,
				Text:   "Wir fördern den Ausbau von Elektromobilität durch Kaufanreize.",
				Source: "Wahlprogramm 2025",
				Page:   &page,
				Link:   link,
			},
			Score: 0.82,
		},
		{
			Chunk: index.Chunk{
				ID:     "c2",
				Party:  party.Gruene,
				Text:   "Der öffentliche Nahverkehr wird massiv ausgebaut.",
				Source: "Wahlprogramm 2025",
			},
			Score: 0.51,
		},
	}
}

func TestSynthesize_NoEvidenceSkipsCompletion(t *testing.T) {
	completer := &fakeCompleter{}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "Sollten E-Autos subventioniert werden?", party.BSW, nil)

	assert.Equal(t, analysis.NoPosition(), a)
	assert.Zero(t, completer.calls, "no completion call without evidence")
}

func TestSynthesize_ValidJudgment(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"agreement": 85, "explanation": "Die Partei unterstützt Kaufanreize ausdrücklich.", "citations": [{"text": "Wir fördern den Ausbau von Elektromobilität durch Kaufanreize.", "page": 12}]}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "Should electric vehicles be subsidized?", party.Gruene, evidenceHits())

	assert.GreaterOrEqual(t, a.Agreement, 70)
	assert.Equal(t, 1, completer.calls)
	require.Len(t, a.Citations, 1)
	assert.Equal(t, "Wir fördern den Ausbau von Elektromobilität durch Kaufanreize.", a.Citations[0].Text)
	assert.Equal(t, "Wahlprogramm 2025", a.Citations[0].Source)
	require.NotNil(t, a.Citations[0].Page)
	assert.Equal(t, 12, *a.Citations[0].Page)
	require.NotNil(t, a.Citations[0].Link)
	assert.Equal(t, "https://example.org/wahlprogramm.pdf", *a.Citations[0].Link)
}

func TestSynthesize_ClampsOutOfRangeScore(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"agreement": 150, "explanation": "Volle Zustimmung.", "citations": []}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())
	assert.Equal(t, 100, a.Agreement)

	completer.response = `{"agreement": -20, "explanation": "Ablehnung.", "citations": []}`
	a = s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())
	assert.Equal(t, 0, a.Agreement)
}

func TestSynthesize_DropsUntraceableCitations(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"agreement": 60, "explanation": "Teilweise Zustimmung.", "citations": [{"text": "Dieser Satz steht in keinem Wahlprogramm.", "page": 3}]}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())

	// The fabricated citation is dropped; the strongest hit is cited instead.
	require.Len(t, a.Citations, 1)
	assert.Contains(t, evidenceHits()[0].Chunk.Text, a.Citations[0].Text)
}

func TestSynthesize_TracesReflowedQuotes(t *testing.T) {
	// Models trim and reflow whitespace; tracing must survive that.
	completer := &fakeCompleter{
		response: `{"agreement": 70, "explanation": "Zustimmung.", "citations": [{"text": "wir fördern  den Ausbau von Elektromobilität", "page": 12}]}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())
	require.Len(t, a.Citations, 1)
	require.NotNil(t, a.Citations[0].Page)
	assert.Equal(t, 12, *a.Citations[0].Page)
}

func TestSynthesize_MalformedResponseDegrades(t *testing.T) {
	completer := &fakeCompleter{response: `Invalid JSON Format`}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())
	assert.Equal(t, analysis.Unavailable(), a)
}

func TestSynthesize_ProviderFailureDegradesWithoutRetry(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("invalid request")}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())

	assert.Equal(t, analysis.Unavailable(), a)
	assert.Equal(t, 1, completer.calls, "non-retryable provider errors fail fast")
}

func TestSynthesize_RateLimitIsRetried(t *testing.T) {
	completer := &flakyCompleter{
		response: `{"agreement": 50, "explanation": "Ok.", "citations": []}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())

	assert.Equal(t, 50, a.Agreement)
	assert.Equal(t, 2, completer.calls)
}

func TestSynthesize_CollapsedCitationChainCapsScore(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"agreement": 90, "explanation": "Starke Zustimmung.", "citations": [{"text": "Dieser Satz steht in keinem Wahlprogramm.", "page": 7}]}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())

	// The score may not keep high confidence when none of the model's own
	// citations traced back to the evidence.
	assert.Equal(t, neutralAgreement, a.Agreement)
	require.Len(t, a.Citations, 1)
	assert.Contains(t, evidenceHits()[0].Chunk.Text, a.Citations[0].Text)
}

func TestSynthesize_EvidenceBudgetTruncatesLowestRankedFirst(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"agreement": 50, "explanation": "Ok.", "citations": []}`,
	}
	// Budget fits only the first chunk.
	s := NewSynthesizer(completer, 70, nil)

	s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Elektromobilität")
	assert.NotContains(t, completer.prompts[0], "Nahverkehr")
}

func TestSynthesize_CapsCitations(t *testing.T) {
	text := evidenceHits()[0].Chunk.Text
	citation := `{"text": "` + text + `", "page": 12}`
	completer := &fakeCompleter{
		response: `{"agreement": 80, "explanation": "Mehrfach belegt.", "citations": [` +
			strings.Join([]string{citation, citation, citation, citation, citation}, ",") + `]}`,
	}
	s := NewSynthesizer(completer, 0, nil)

	a := s.Synthesize(context.Background(), "egal", party.Gruene, evidenceHits())
	assert.Len(t, a.Citations, MaxCitations)
}

func TestBuildPrompt_IncludesLocations(t *testing.T) {
	prompt := buildPrompt(party.Gruene, "Should electric vehicles be subsidized?", evidenceHits())

	assert.Contains(t, prompt, "BÜNDNIS 90/DIE GRÜNEN")
	assert.Contains(t, prompt, "Wahlprogramm 2025, Seite 12")
	assert.Contains(t, prompt, "Should electric vehicles be subsidized?")
	assert.Contains(t, prompt, `"agreement"`)
}
