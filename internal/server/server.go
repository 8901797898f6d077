package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wahlkompass/wahlkompass/internal/index"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server   *mcp.Server
	analyzer Analyzer
	store    index.Store
}

// Config holds server dependencies.
type Config struct {
	Analyzer Analyzer
	Store    index.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "wahlkompass-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_statement",
		Description: "Judge how strongly each tracked German party would agree with a political statement, based on its election manifesto. Returns per-party agreement scores (0-100), explanations and manifesto citations.",
	}, makeAnalyzeHandler(cfg.Analyzer))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_parties",
		Description: "List the tracked parties with their display names and official manifesto links.",
	}, makeListPartiesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Report how many manifesto chunks are indexed per party, and which party indices are empty.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server:   server,
		analyzer: cfg.Analyzer,
		store:    cfg.Store,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
