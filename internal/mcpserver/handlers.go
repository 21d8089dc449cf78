package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/graphview"
)

// handleSearchKnowledge runs one retrieval-augmented question over the
// knowledge base.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	settings := s.settings
	if topK := request.GetInt("top_k", 0); topK > 0 {
		settings.TopK = topK
	}

	resp, err := s.backend.Chat(ctx, api.ChatRequest{
		KnowledgeBaseID: s.kbID,
		Mode:            api.ModeAll,
		Question:        question,
		Settings:        settings,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(resp)), nil
}

// handleListDocuments lists documents with their pipeline status.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.backend.ListDocuments(ctx, s.kbID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}

	if len(docs) == 0 {
		return mcp.NewToolResultText("The knowledge base contains no documents yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("\n- upload %d: %s (status %s", d.ID, d.FileName, d.Status))
		if d.DocumentID != "" {
			sb.WriteString(fmt.Sprintf(", group %s", d.DocumentID))
		}
		sb.WriteString(")")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetDocumentContent returns a document's parsed markdown.
func (s *Server) handleGetDocumentContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uploadID := request.GetInt("upload_id", 0)
	if uploadID <= 0 {
		return mcp.NewToolResultError("missing required parameter: upload_id"), nil
	}

	content, err := s.backend.GetDocumentContent(ctx, int64(uploadID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching content failed: %v", err)), nil
	}
	if content == "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Document %d has no parsed content yet. Run the parse stage first.", uploadID)), nil
	}

	return mcp.NewToolResultText(content), nil
}

// handleGetGraph renders the knowledge graph as Mermaid text.
func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var groupIDs []string
	if raw := request.GetString("group_ids", ""); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				groupIDs = append(groupIDs, id)
			}
		}
	}

	g, err := s.backend.GetGraph(ctx, s.kbID, groupIDs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching graph failed: %v", err)), nil
	}
	if len(g.Nodes) == 0 {
		return mcp.NewToolResultText("The graph is empty. Process at least one document first."), nil
	}

	return mcp.NewToolResultText(graphview.Mermaid(*g)), nil
}

// formatAnswer converts a chat response into text optimized for AI
// agent consumption: the answer first, then the supporting items.
func formatAnswer(resp *api.ChatResponse) string {
	var sb strings.Builder
	sb.WriteString(resp.Answer)

	if len(resp.RetrievalResults) > 0 {
		sb.WriteString(fmt.Sprintf("\n\n--- %d supporting item(s) ---\n", len(resp.RetrievalResults)))
		for _, item := range resp.RetrievalResults {
			kind := item.Type
			if kind == "" {
				kind = item.SourceType
			}
			if kind == "" && item.RelType != "" {
				kind = "edge"
			}
			sb.WriteString(fmt.Sprintf("\n[%s] %s (score %.2f)\n", kind, item.Name, item.Score))
			if item.Content != "" {
				sb.WriteString(item.Content)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
