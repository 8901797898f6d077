// Package server exposes the analysis pipeline at the web boundary: an MCP
// tool surface and plain HTTP endpoints for the surrounding web layer.
package server

import "github.com/wahlkompass/wahlkompass/internal/analysis"

// AnalyzeStatementInput defines the input parameters for the
// analyze_statement tool.
type AnalyzeStatementInput struct {
	// Statement is the political statement to judge.
	Statement string `json:"statement" jsonschema:"required,description=The political statement to judge against each party's manifesto"`
}

// AnalyzeStatementOutput contains one analysis per tracked party.
type AnalyzeStatementOutput struct {
	// Analyses maps party keys to their judgments. Every tracked party is
	// present.
	Analyses analysis.Result `json:"analyses"`
}

// ListPartiesInput defines the input parameters for the list_parties tool.
// This tool takes no parameters.
type ListPartiesInput struct {
	// No input parameters required
}

// PartyInfo describes one tracked party.
type PartyInfo struct {
	// Key is the stable party key used in analysis results.
	Key string `json:"key"`
	// DisplayName is the party's full localized name.
	DisplayName string `json:"display_name"`
	// ManifestoLink is the official manifesto URL.
	ManifestoLink string `json:"manifesto_link"`
}

// ListPartiesOutput contains the closed set of tracked parties.
type ListPartiesOutput struct {
	Parties []PartyInfo `json:"parties"`
	Count   int         `json:"count"`
}

// IndexStatusInput defines the input parameters for the get_index_status
// tool. This tool takes no parameters.
type IndexStatusInput struct {
	// No input parameters required
}

// IndexStatusOutput reports per-party chunk counts for the loaded indices.
type IndexStatusOutput struct {
	// Chunks maps party keys to the number of indexed chunks.
	Chunks map[string]int `json:"chunks"`
	// TotalChunks is the sum over all parties.
	TotalChunks int `json:"total_chunks"`
	// EmptyParties lists parties whose index holds no chunks.
	EmptyParties []string `json:"empty_parties"`
}
