package graphview

// Node labels assigned by the backend graph store.
const (
	LabelEntity    = "Entity"
	LabelEpisodic  = "Episodic"
	LabelCommunity = "Community"
)

// EpisodeType is the derived subtype of an episodic node.
type EpisodeType string

const (
	EpisodeDocument EpisodeType = "document"
	EpisodeSection  EpisodeType = "section"
	EpisodeImage    EpisodeType = "image"
	EpisodeTable    EpisodeType = "table"
)

// Node represents a single node in a graph snapshot returned by the backend.
type Node struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

// Edge represents a relationship between two nodes in the same snapshot.
type Edge struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"`
	Target     string                 `json:"target"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// Graph is a node/edge snapshot as fetched from the backend, or the
// filtered view derived from one.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// HasLabel reports whether the node carries the given label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Name returns the node's name property, or empty string if unset.
func (n Node) Name() string {
	if v, ok := n.Properties["name"].(string); ok {
		return v
	}
	return ""
}

// FilterConfig is the declarative set of category toggles applied to a
// graph snapshot. Zero value shows nothing; use DefaultFilterConfig for
// the everything-on view.
type FilterConfig struct {
	ShowEpisodes    bool
	EpisodeTypes    map[EpisodeType]bool
	ShowEntities    bool
	EntityTypes     map[string]bool
	ShowCommunities bool
	ShowRelations   bool
	RelationTypes   map[string]bool

	// OtherEntities and OtherRelations are the fallback toggles for
	// entity types and relation types with no explicit entry above.
	OtherEntities  bool
	OtherRelations bool
}

// DefaultFilterConfig returns a config with every category enabled.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		ShowEpisodes: true,
		EpisodeTypes: map[EpisodeType]bool{
			EpisodeDocument: true,
			EpisodeSection:  true,
			EpisodeImage:    true,
			EpisodeTable:    true,
		},
		ShowEntities:    true,
		EntityTypes:     map[string]bool{},
		ShowCommunities: true,
		ShowRelations:   true,
		RelationTypes:   map[string]bool{},
		OtherEntities:   true,
		OtherRelations:  true,
	}
}
