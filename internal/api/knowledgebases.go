package api

import (
	"context"
	"fmt"
	"time"
)

// KnowledgeBase groups documents and their derived graph under one scope.
type KnowledgeBase struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// KnowledgeBaseInput is the create/update payload.
type KnowledgeBaseInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Member is a user with access to a knowledge base.
type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ListKnowledgeBases returns the knowledge bases visible to the caller.
func (c *Client) ListKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	var kbs []KnowledgeBase
	if err := c.get(ctx, "/api/v1/knowledge-bases", &kbs); err != nil {
		return nil, fmt.Errorf("listing knowledge bases: %w", err)
	}
	return kbs, nil
}

// GetKnowledgeBase retrieves a single knowledge base.
func (c *Client) GetKnowledgeBase(ctx context.Context, id int64) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := c.get(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d", id), &kb); err != nil {
		return nil, fmt.Errorf("getting knowledge base %d: %w", id, err)
	}
	return &kb, nil
}

// CreateKnowledgeBase creates a knowledge base.
func (c *Client) CreateKnowledgeBase(ctx context.Context, in KnowledgeBaseInput) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := c.post(ctx, "/api/v1/knowledge-bases", in, &kb); err != nil {
		return nil, fmt.Errorf("creating knowledge base: %w", err)
	}
	return &kb, nil
}

// UpdateKnowledgeBase updates name/description of a knowledge base.
func (c *Client) UpdateKnowledgeBase(ctx context.Context, id int64, in KnowledgeBaseInput) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := c.put(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d", id), in, &kb); err != nil {
		return nil, fmt.Errorf("updating knowledge base %d: %w", id, err)
	}
	return &kb, nil
}

// DeleteKnowledgeBase deletes a knowledge base and all its documents.
func (c *Client) DeleteKnowledgeBase(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d", id)); err != nil {
		return fmt.Errorf("deleting knowledge base %d: %w", id, err)
	}
	return nil
}

// ListMembers returns the members of a knowledge base.
func (c *Client) ListMembers(ctx context.Context, kbID int64) ([]Member, error) {
	var members []Member
	if err := c.get(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/members", kbID), &members); err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// AddMember grants a user access to a knowledge base.
func (c *Client) AddMember(ctx context.Context, kbID, userID int64, role string) error {
	in := map[string]interface{}{"user_id": userID, "role": role}
	if err := c.post(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/members", kbID), in, nil); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember revokes a user's access to a knowledge base.
func (c *Client) RemoveMember(ctx context.Context, kbID, userID int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/members/%d", kbID, userID)); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}
