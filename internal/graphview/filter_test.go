package graphview

import (
	"reflect"
	"strings"
	"testing"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "doc1", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "report.pdf"}},
			{ID: "sec1", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "report.pdf - Section 1"}},
			{ID: "img1", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "Image: chart.png (report.pdf)"}},
			{ID: "tbl1", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "Table: totals (report.pdf)"}},
			{ID: "ent1", Labels: []string{"Entity", "Person"}, Properties: map[string]interface{}{"name": "Ada Lovelace"}},
			{ID: "ent2", Labels: []string{"Entity"}, Properties: map[string]interface{}{"name": "ACME Corp", "entity_type": "Organization"}},
			{ID: "com1", Labels: []string{"Community"}, Properties: map[string]interface{}{"name": "Finance"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "sec1", Target: "ent1", Type: "MENTIONS"},
			{ID: "e2", Source: "ent1", Target: "ent2", Type: "WORKS_AT"},
			{ID: "e3", Source: "com1", Target: "ent2", Type: "HAS_MEMBER"},
			{ID: "e4", Source: "doc1", Target: "sec1", Type: "CONTAINS"},
		},
	}
}

func TestFilterEverythingOn(t *testing.T) {
	g := sampleGraph()
	out := Filter(g, DefaultFilterConfig())

	if len(out.Nodes) != len(g.Nodes) {
		t.Errorf("expected all %d nodes, got %d", len(g.Nodes), len(out.Nodes))
	}
	if len(out.Edges) != len(g.Edges) {
		t.Errorf("expected all %d edges, got %d", len(g.Edges), len(out.Edges))
	}
}

func TestFilterIdempotent(t *testing.T) {
	g := sampleGraph()
	configs := []FilterConfig{
		DefaultFilterConfig(),
		{},
		func() FilterConfig {
			c := DefaultFilterConfig()
			c.ShowEntities = false
			return c
		}(),
		func() FilterConfig {
			c := DefaultFilterConfig()
			c.EpisodeTypes[EpisodeImage] = false
			c.RelationTypes["MENTIONS"] = false
			return c
		}(),
	}

	for i, cfg := range configs {
		once := Filter(g, cfg)
		twice := Filter(once, cfg)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("config %d: filter is not idempotent", i)
		}
	}
}

func TestFilterReferentialIntegrity(t *testing.T) {
	g := sampleGraph()
	cfg := DefaultFilterConfig()
	cfg.ShowEntities = false

	out := Filter(g, cfg)

	visible := map[string]bool{}
	for _, n := range out.Nodes {
		visible[n.ID] = true
	}
	for _, e := range out.Edges {
		if !visible[e.Source] || !visible[e.Target] {
			t.Errorf("edge %s references hidden node (%s -> %s)", e.ID, e.Source, e.Target)
		}
	}

	// Entity-touching edges must be gone even though their relation
	// types are still enabled.
	for _, e := range out.Edges {
		if e.ID == "e1" || e.ID == "e2" || e.ID == "e3" {
			t.Errorf("edge %s should have been dropped with entities hidden", e.ID)
		}
	}
}

func TestFilterRelationsOff(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.ShowRelations = false

	out := Filter(sampleGraph(), cfg)
	if len(out.Edges) != 0 {
		t.Errorf("expected no edges with relations off, got %d", len(out.Edges))
	}
	if len(out.Nodes) == 0 {
		t.Error("nodes should be unaffected by the relations toggle")
	}
}

func TestFilterEpisodeSubtypes(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.EpisodeTypes[EpisodeImage] = false
	cfg.EpisodeTypes[EpisodeTable] = false

	out := Filter(sampleGraph(), cfg)
	for _, n := range out.Nodes {
		if n.ID == "img1" || n.ID == "tbl1" {
			t.Errorf("node %s should be hidden", n.ID)
		}
	}

	ids := map[string]bool{}
	for _, n := range out.Nodes {
		ids[n.ID] = true
	}
	if !ids["doc1"] || !ids["sec1"] {
		t.Error("document and section episodes should remain visible")
	}
}

func TestFilterUnclassifiableEpisodeRetained(t *testing.T) {
	g := Graph{Nodes: []Node{
		{ID: "odd", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "completely opaque name"}},
	}}

	cfg := DefaultFilterConfig()
	for k := range cfg.EpisodeTypes {
		cfg.EpisodeTypes[k] = false
	}
	out := Filter(g, cfg)
	if len(out.Nodes) != 1 {
		t.Error("unclassifiable episode should be retained while episodes are shown")
	}

	cfg.ShowEpisodes = false
	out = Filter(g, cfg)
	if len(out.Nodes) != 0 {
		t.Error("episode should be hidden when ShowEpisodes is false")
	}
}

func TestFilterEntityTypeFallback(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.EntityTypes["Person"] = true
	cfg.OtherEntities = false

	out := Filter(sampleGraph(), cfg)
	ids := map[string]bool{}
	for _, n := range out.Nodes {
		ids[n.ID] = true
	}
	if !ids["ent1"] {
		t.Error("Person entity should be visible")
	}
	if ids["ent2"] {
		t.Error("Organization entity should fall back to the disabled default toggle")
	}
}

func TestFilterUnknownRelationFallback(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.RelationTypes["MENTIONS"] = true
	cfg.OtherRelations = false

	out := Filter(sampleGraph(), cfg)
	for _, e := range out.Edges {
		if e.Type != "MENTIONS" {
			t.Errorf("edge type %s should fall back to the disabled default toggle", e.Type)
		}
	}
}

func TestFilterCommunities(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.ShowCommunities = false

	out := Filter(sampleGraph(), cfg)
	for _, n := range out.Nodes {
		if n.HasLabel(LabelCommunity) {
			t.Error("community node should be hidden")
		}
	}
	for _, e := range out.Edges {
		if e.ID == "e3" {
			t.Error("edge into hidden community should be dropped")
		}
	}
}

func TestMermaidOutput(t *testing.T) {
	out := Mermaid(Filter(sampleGraph(), DefaultFilterConfig()))
	if !strings.HasPrefix(out, "graph TD\n") {
		t.Fatalf("unexpected prefix: %q", out[:10])
	}
	if !strings.Contains(out, "-->|MENTIONS|") {
		t.Error("expected labeled MENTIONS edge in mermaid output")
	}
	if !strings.Contains(out, "Ada Lovelace") {
		t.Error("expected entity name in mermaid output")
	}
}
