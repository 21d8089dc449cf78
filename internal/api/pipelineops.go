package api

import (
	"context"
	"fmt"
)

// ParseResult is returned by the parse stage.
type ParseResult struct {
	UploadID int64  `json:"upload_id"`
	Status   string `json:"status"`
	Content  string `json:"content"`
}

// Version is a snapshot of a document's parsed content.
type Version struct {
	ID        int64  `json:"id"`
	UploadID  int64  `json:"upload_id"`
	Number    int    `json:"number"`
	CreatedAt string `json:"created_at"`
}

// Section is one chunk produced by the split stage.
type Section struct {
	Index      int    `json:"index"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	TokenCount int    `json:"token_count"`
}

// SplitResult is returned by the split stage.
type SplitResult struct {
	UploadID   int64     `json:"upload_id"`
	Strategy   string    `json:"strategy"`
	Sections   []Section `json:"sections"`
	Statistics struct {
		TotalSections int `json:"total_sections"`
		TotalTokens   int `json:"total_tokens"`
	} `json:"statistics"`
}

// taskRef is the response of endpoints that submit an asynchronous job.
type taskRef struct {
	TaskID string `json:"task_id"`
}

// ParseDocument asks the backend to parse an uploaded file. The call is
// synchronous: on return the document is in status "parsed" and the
// parsed markdown is included in the result.
func (c *Client) ParseDocument(ctx context.Context, uploadID int64) (*ParseResult, error) {
	var result ParseResult
	if err := c.post(ctx, fmt.Sprintf("/api/v1/documents/%d/parse", uploadID), nil, &result); err != nil {
		return nil, fmt.Errorf("parsing document %d: %w", uploadID, err)
	}
	return &result, nil
}

// CreateVersion snapshots the current parsed content as a new version.
func (c *Client) CreateVersion(ctx context.Context, uploadID int64) (*Version, error) {
	var v Version
	if err := c.post(ctx, fmt.Sprintf("/api/v1/documents/%d/versions", uploadID), nil, &v); err != nil {
		return nil, fmt.Errorf("creating version for document %d: %w", uploadID, err)
	}
	return &v, nil
}

// SplitDocument chunks the parsed content using the given strategy
// (e.g. "level_1", "level_2", "token_window").
func (c *Client) SplitDocument(ctx context.Context, uploadID int64, strategy string) (*SplitResult, error) {
	in := map[string]string{"strategy": strategy}
	var result SplitResult
	if err := c.post(ctx, fmt.Sprintf("/api/v1/documents/%d/split", uploadID), in, &result); err != nil {
		return nil, fmt.Errorf("splitting document %d: %w", uploadID, err)
	}
	return &result, nil
}

// ProcessDocument submits Episode creation for a chunked document and
// returns the id of the asynchronous task driving it.
func (c *Client) ProcessDocument(ctx context.Context, uploadID int64) (string, error) {
	var ref taskRef
	if err := c.post(ctx, fmt.Sprintf("/api/v1/documents/%d/process", uploadID), nil, &ref); err != nil {
		return "", fmt.Errorf("processing document %d: %w", uploadID, err)
	}
	return ref.TaskID, nil
}

// BuildCommunities submits Community detection over a knowledge base's
// graph and returns the task id.
func (c *Client) BuildCommunities(ctx context.Context, kbID int64) (string, error) {
	var ref taskRef
	if err := c.post(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/communities/build", kbID), nil, &ref); err != nil {
		return "", fmt.Errorf("building communities for knowledge base %d: %w", kbID, err)
	}
	return ref.TaskID, nil
}
