package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Entity is a graph entity managed through the admin CRUD surface.
type Entity struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	GroupID    string                 `json:"group_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Relationship connects two entities.
type Relationship struct {
	ID         string                 `json:"id"`
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// ImportError describes one rejected row of a bulk import.
type ImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the partial-success report of a bulk import: the
// number of created items plus per-row errors, not a single pass/fail.
type ImportResult struct {
	Created int           `json:"created"`
	Errors  []ImportError `json:"errors"`
}

// ListEntities returns entities scoped to a knowledge base.
func (c *Client) ListEntities(ctx context.Context, kbID int64) ([]Entity, error) {
	var entities []Entity
	if err := c.get(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/entities", kbID), &entities); err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return entities, nil
}

// CreateEntity creates an entity.
func (c *Client) CreateEntity(ctx context.Context, kbID int64, in Entity) (*Entity, error) {
	var e Entity
	if err := c.post(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/entities", kbID), in, &e); err != nil {
		return nil, fmt.Errorf("creating entity: %w", err)
	}
	return &e, nil
}

// UpdateEntity updates an entity.
func (c *Client) UpdateEntity(ctx context.Context, id string, in Entity) (*Entity, error) {
	var e Entity
	if err := c.put(ctx, "/api/v1/entities/"+id, in, &e); err != nil {
		return nil, fmt.Errorf("updating entity %s: %w", id, err)
	}
	return &e, nil
}

// DeleteEntity deletes an entity and its relationships.
func (c *Client) DeleteEntity(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/v1/entities/"+id); err != nil {
		return fmt.Errorf("deleting entity %s: %w", id, err)
	}
	return nil
}

// ListRelationships returns relationships scoped to a knowledge base.
func (c *Client) ListRelationships(ctx context.Context, kbID int64) ([]Relationship, error) {
	var rels []Relationship
	if err := c.get(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/relationships", kbID), &rels); err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	return rels, nil
}

// CreateRelationship creates a relationship between two entities.
func (c *Client) CreateRelationship(ctx context.Context, kbID int64, in Relationship) (*Relationship, error) {
	var rel Relationship
	if err := c.post(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/relationships", kbID), in, &rel); err != nil {
		return nil, fmt.Errorf("creating relationship: %w", err)
	}
	return &rel, nil
}

// DeleteRelationship deletes a relationship.
func (c *Client) DeleteRelationship(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/v1/relationships/"+id); err != nil {
		return fmt.Errorf("deleting relationship %s: %w", id, err)
	}
	return nil
}

// ImportEntities bulk-imports entities from a CSV or JSON file. format
// is "csv" or "json". The backend creates what it can and reports
// per-row errors for the rest.
func (c *Client) ImportEntities(ctx context.Context, kbID int64, format, fileName string, r io.Reader) (*ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copying import content: %w", err)
	}
	if err := mw.WriteField("format", format); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/knowledge-bases/%d/entities/import", c.BaseURL, kbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("importing entities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var result ImportResult
	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
