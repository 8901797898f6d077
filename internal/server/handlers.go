package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wahlkompass/wahlkompass/internal/analysis"
	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Analyzer runs the full per-statement analysis. The analysis engine
// implements it.
type Analyzer interface {
	Analyze(ctx context.Context, statement string) (analysis.Result, error)
}

// makeAnalyzeHandler creates the analyze_statement tool handler. Input
// errors surface to the client; everything else is already resolved to
// per-party defaults by the engine.
func makeAnalyzeHandler(analyzer Analyzer) func(
	context.Context, *mcp.CallToolRequest, AnalyzeStatementInput,
) (*mcp.CallToolResult, AnalyzeStatementOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeStatementInput) (
		*mcp.CallToolResult, AnalyzeStatementOutput, error,
	) {
		result, err := analyzer.Analyze(ctx, input.Statement)
		if err != nil {
			return nil, AnalyzeStatementOutput{}, fmt.Errorf("analysis failed: %w", err)
		}
		return nil, AnalyzeStatementOutput{Analyses: result}, nil
	}
}

// makeListPartiesHandler creates the list_parties tool handler.
func makeListPartiesHandler() func(
	context.Context, *mcp.CallToolRequest, ListPartiesInput,
) (*mcp.CallToolResult, ListPartiesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListPartiesInput) (
		*mcp.CallToolResult, ListPartiesOutput, error,
	) {
		parties := make([]PartyInfo, 0, len(party.All()))
		for _, p := range party.All() {
			parties = append(parties, PartyInfo{
				Key:           p.Key(),
				DisplayName:   p.DisplayName(),
				ManifestoLink: p.ManifestoLink(),
			})
		}
		return nil, ListPartiesOutput{Parties: parties, Count: len(parties)}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler. It reports
// how many chunks each party index currently serves.
func makeStatusHandler(store index.Store) func(
	context.Context, *mcp.CallToolRequest, IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (
		*mcp.CallToolResult, IndexStatusOutput, error,
	) {
		out := IndexStatusOutput{
			Chunks:       make(map[string]int, len(party.All())),
			EmptyParties: []string{},
		}
		for _, p := range party.All() {
			n, err := store.Count(ctx, p)
			if err != nil {
				return nil, IndexStatusOutput{}, fmt.Errorf("count chunks for %s: %w", p.Key(), err)
			}
			out.Chunks[p.Key()] = n
			out.TotalChunks += n
			if n == 0 {
				out.EmptyParties = append(out.EmptyParties, p.Key())
			}
		}
		return nil, out, nil
	}
}
