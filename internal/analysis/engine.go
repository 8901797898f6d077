package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

var (
	ErrEmptyStatement   = errors.New("statement is empty")
	ErrStatementTooLong = errors.New("statement exceeds length limit")
	ErrEmbeddingFailed  = errors.New("statement embedding failed")
)

// Retriever embeds a statement and fetches per-party evidence.
type Retriever interface {
	EmbedStatement(ctx context.Context, statement string) ([]float32, error)
	Retrieve(ctx context.Context, p party.Party, vector []float32) []index.Hit
}

// Synthesizer turns a statement and a party's evidence into a judgment. It
// never fails: provider problems degrade to default analyses internally.
type Synthesizer interface {
	Synthesize(ctx context.Context, statement string, p party.Party, hits []index.Hit) PartyAnalysis
}

// Engine runs the full query path: validate, embed once, fan out per party,
// aggregate.
type Engine struct {
	retriever    Retriever
	synthesizer  Synthesizer
	maxStatement int
	partyTimeout time.Duration
	logger       *slog.Logger
}

// NewEngine creates an analysis engine. maxStatement bounds statement length
// in bytes; partyTimeout bounds each party's retrieval+synthesis task.
func NewEngine(retriever Retriever, synthesizer Synthesizer, maxStatement int, partyTimeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxStatement <= 0 {
		maxStatement = 1000
	}
	if partyTimeout <= 0 {
		partyTimeout = 25 * time.Second
	}
	return &Engine{
		retriever:    retriever,
		synthesizer:  synthesizer,
		maxStatement: maxStatement,
		partyTimeout: partyTimeout,
		logger:       logger,
	}
}

// Analyze computes one judgment per tracked party for the statement.
// Input errors and statement-embedding failure fail the request; every other
// failure is isolated to its party and resolved with a default entry.
func (e *Engine) Analyze(ctx context.Context, statement string) (Result, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return nil, ErrEmptyStatement
	}
	if len(statement) > e.maxStatement {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrStatementTooLong, len(statement), e.maxStatement)
	}

	// Embedded once, shared read-only across all party tasks.
	vector, err := e.retriever.EmbedStatement(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	parties := party.All()
	analyses := make([]PartyAnalysis, len(parties))

	var wg sync.WaitGroup
	for i, p := range parties {
		wg.Add(1)
		go func(slot int, p party.Party) {
			defer wg.Done()
			analyses[slot] = e.analyzeParty(ctx, statement, p, vector)
		}(i, p)
	}
	wg.Wait()

	byParty := make(map[party.Party]PartyAnalysis, len(parties))
	for i, p := range parties {
		byParty[p] = analyses[i]
	}
	return Aggregate(byParty, e.logger), nil
}

// analyzeParty runs one party's retrieval and synthesis under its own
// timeout. No party may block the response indefinitely: on timeout the
// entry resolves to the unavailable default.
func (e *Engine) analyzeParty(ctx context.Context, statement string, p party.Party, vector []float32) PartyAnalysis {
	pctx, cancel := context.WithTimeout(ctx, e.partyTimeout)
	defer cancel()

	// Buffered so the worker can finish after a timeout without leaking.
	done := make(chan PartyAnalysis, 1)
	go func() {
		hits := e.retriever.Retrieve(pctx, p, vector)
		done <- e.synthesizer.Synthesize(pctx, statement, p, hits)
	}()

	select {
	case a := <-done:
		return a
	case <-pctx.Done():
		e.logger.Warn("Party analysis timed out", "party", p.Key(), "timeout", e.partyTimeout)
		return Unavailable()
	}
}
