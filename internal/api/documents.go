package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/graphdesk/graphdesk/internal/pipeline"
)

// ListDocuments returns the upload records for a knowledge base.
func (c *Client) ListDocuments(ctx context.Context, kbID int64) ([]pipeline.Document, error) {
	var docs []pipeline.Document
	if err := c.get(ctx, fmt.Sprintf("/api/v1/knowledge-bases/%d/documents", kbID), &docs); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// GetDocument returns a single upload record.
func (c *Client) GetDocument(ctx context.Context, id int64) (*pipeline.Document, error) {
	var doc pipeline.Document
	if err := c.get(ctx, fmt.Sprintf("/api/v1/documents/%d", id), &doc); err != nil {
		return nil, fmt.Errorf("getting document %d: %w", id, err)
	}
	return &doc, nil
}

// UploadDocument uploads a local file into a knowledge base. On success
// the backend validates the file and returns the upload record with
// status "validated".
func (c *Client) UploadDocument(ctx context.Context, kbID int64, path string) (*pipeline.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return c.UploadDocumentReader(ctx, kbID, filepath.Base(path), f)
}

// UploadDocumentReader uploads file content from a reader under the
// given file name.
func (c *Client) UploadDocumentReader(ctx context.Context, kbID int64, fileName string, r io.Reader) (*pipeline.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copying file content: %w", err)
	}
	if err := mw.WriteField("knowledge_base_id", fmt.Sprintf("%d", kbID)); err != nil {
		return nil, fmt.Errorf("writing form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/documents/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setAuth(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var doc pipeline.Document
	if err := decodeJSON(resp.Body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes an upload and its pipeline artifacts.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/api/v1/documents/%d", id)); err != nil {
		return fmt.Errorf("deleting document %d: %w", id, err)
	}
	return nil
}

// GetDocumentContent returns the parsed markdown content of a document.
func (c *Client) GetDocumentContent(ctx context.Context, id int64) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/documents/%d/content", id), &out); err != nil {
		return "", fmt.Errorf("getting document content: %w", err)
	}
	return out.Content, nil
}
