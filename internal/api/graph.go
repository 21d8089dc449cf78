package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/graphdesk/graphdesk/internal/graphview"
)

// GetGraph fetches the graph snapshot for one or more group ids. An
// empty groupIDs slice fetches the whole knowledge base graph.
func (c *Client) GetGraph(ctx context.Context, kbID int64, groupIDs []string) (*graphview.Graph, error) {
	path := fmt.Sprintf("/api/v1/knowledge-bases/%d/graph", kbID)
	if len(groupIDs) > 0 {
		path += "?group_ids=" + url.QueryEscape(strings.Join(groupIDs, ","))
	}

	var g graphview.Graph
	if err := c.get(ctx, path, &g); err != nil {
		return nil, fmt.Errorf("fetching graph: %w", err)
	}
	return &g, nil
}
