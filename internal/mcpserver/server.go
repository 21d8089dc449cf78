// Package mcpserver exposes a knowledge base to AI agents over the
// Model Context Protocol: retrieval search, the document list, parsed
// content, and the knowledge graph.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/graphview"
	"github.com/graphdesk/graphdesk/internal/pipeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Backend is the slice of the platform API the MCP tools consume.
// *api.Client satisfies it.
type Backend interface {
	ListDocuments(ctx context.Context, kbID int64) ([]pipeline.Document, error)
	GetDocumentContent(ctx context.Context, id int64) (string, error)
	GetGraph(ctx context.Context, kbID int64, groupIDs []string) (*graphview.Graph, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Server wraps an MCP server that exposes knowledge base tools.
type Server struct {
	backend  Backend
	kbID     int64
	settings api.RetrievalSettings
	mcp      *server.MCPServer
}

// NewServer creates an MCP server over one knowledge base.
func NewServer(backend Backend, kbID int64, settings api.RetrievalSettings) *Server {
	s := &Server{
		backend:  backend,
		kbID:     kbID,
		settings: settings,
	}

	s.mcp = server.NewMCPServer(
		"graphdesk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(getDocumentContentTool, s.handleGetDocumentContent)
	s.mcp.AddTool(getGraphTool, s.handleGetGraph)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
