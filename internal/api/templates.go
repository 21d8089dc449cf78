package api

import (
	"context"
	"fmt"
	"time"
)

// Template is a reusable requirement-document template managed on the
// platform.
type Template struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateInput is the create/update payload.
type TemplateInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// ListTemplates returns all templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := c.get(ctx, "/api/v1/templates", &templates); err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}

// GetTemplate retrieves one template.
func (c *Client) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	var t Template
	if err := c.get(ctx, fmt.Sprintf("/api/v1/templates/%d", id), &t); err != nil {
		return nil, fmt.Errorf("getting template %d: %w", id, err)
	}
	return &t, nil
}

// CreateTemplate creates a template.
func (c *Client) CreateTemplate(ctx context.Context, in TemplateInput) (*Template, error) {
	var t Template
	if err := c.post(ctx, "/api/v1/templates", in, &t); err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}
	return &t, nil
}

// UpdateTemplate updates a template.
func (c *Client) UpdateTemplate(ctx context.Context, id int64, in TemplateInput) (*Template, error) {
	var t Template
	if err := c.put(ctx, fmt.Sprintf("/api/v1/templates/%d", id), in, &t); err != nil {
		return nil, fmt.Errorf("updating template %d: %w", id, err)
	}
	return &t, nil
}

// DeleteTemplate deletes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/api/v1/templates/%d", id)); err != nil {
		return fmt.Errorf("deleting template %d: %w", id, err)
	}
	return nil
}

// GenerateFromTemplate submits generation of a requirement document from
// a template over the given knowledge base and returns the task id.
func (c *Client) GenerateFromTemplate(ctx context.Context, templateID, kbID int64) (string, error) {
	in := map[string]int64{"knowledge_base_id": kbID}
	var ref taskRef
	if err := c.post(ctx, fmt.Sprintf("/api/v1/templates/%d/generate", templateID), in, &ref); err != nil {
		return "", fmt.Errorf("generating from template %d: %w", templateID, err)
	}
	return ref.TaskID, nil
}
