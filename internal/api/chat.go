package api

import (
	"context"
	"fmt"
)

// SelectionMode controls which documents a retrieval request runs over.
type SelectionMode string

const (
	ModeSingle   SelectionMode = "single"
	ModeMultiple SelectionMode = "multiple"
	ModeAll      SelectionMode = "all"
)

// RetrievalSettings tunes server-side retrieval ranking.
type RetrievalSettings struct {
	TopK               int    `json:"top_k"`
	CrossEncoderScheme string `json:"cross_encoder_scheme,omitempty"`
}

// RetrievalItem is one retrieved result attached to an assistant answer.
//
// Older backend versions reported the category under source_type, and
// edge results sometimes carry only rel_type. Type is the canonical
// field; the others are kept for compatibility and consulted by the
// categorization heuristic in the chat package.
type RetrievalItem struct {
	Type       string  `json:"type,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	RelType    string  `json:"rel_type,omitempty"`
	Name       string  `json:"name,omitempty"`
	Content    string  `json:"content,omitempty"`
	Score      float64 `json:"score,omitempty"`
	GroupID    string  `json:"group_id,omitempty"`
}

// ChatRequest is a retrieval-augmented chat turn.
type ChatRequest struct {
	KnowledgeBaseID int64             `json:"knowledge_base_id"`
	SessionID       string            `json:"session_id,omitempty"`
	Mode            SelectionMode     `json:"mode"`
	DocumentIDs     []string          `json:"document_ids,omitempty"`
	Question        string            `json:"question"`
	Settings        RetrievalSettings `json:"settings"`
}

// ChatResponse is the assistant's answer plus retrieval metadata.
type ChatResponse struct {
	Answer           string          `json:"answer"`
	RetrievalResults []RetrievalItem `json:"retrieval_results"`
	RetrievalTime    float64         `json:"retrieval_time"`
	SessionID        string          `json:"session_id,omitempty"`
}

// Chat sends one retrieval-augmented chat turn and waits for the answer.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.post(ctx, "/api/v1/chat", req, &resp); err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	return &resp, nil
}
