package chat

import (
	"strings"

	"github.com/graphdesk/graphdesk/internal/api"
)

// Categorized partitions a flat retrieval-result list into the four
// buckets displayed alongside an assistant answer.
type Categorized struct {
	Communities []api.RetrievalItem `json:"communities"`
	Episodes    []api.RetrievalItem `json:"episodes"`
	Edges       []api.RetrievalItem `json:"edges"`
	Entities    []api.RetrievalItem `json:"entities"`
}

// Total returns the number of items across all buckets.
func (c Categorized) Total() int {
	return len(c.Communities) + len(c.Episodes) + len(c.Edges) + len(c.Entities)
}

// Categorize buckets retrieval items by kind. The canonical field is
// Type; source_type is a legacy spelling of the same value, and edge
// results from older backends carry only rel_type. The checks are
// unioned so that no item is ever dropped: anything unrecognized lands
// in the entity bucket.
func Categorize(items []api.RetrievalItem) Categorized {
	var out Categorized
	for _, item := range items {
		kind := strings.ToLower(item.Type)
		if kind == "" {
			kind = strings.ToLower(item.SourceType)
		}

		switch {
		case strings.Contains(kind, "community"):
			out.Communities = append(out.Communities, item)
		case strings.Contains(kind, "episod"):
			out.Episodes = append(out.Episodes, item)
		case kind == "edge" || kind == "relationship" || item.RelType != "":
			out.Edges = append(out.Edges, item)
		default:
			out.Entities = append(out.Entities, item)
		}
	}
	return out
}
