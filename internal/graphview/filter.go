package graphview

// Filter applies the category toggles in cfg to a raw graph snapshot and
// returns the visible view. It is a pure function over its inputs: the
// whole view is recomputed on every call, and filtering an already
// filtered graph with the same config yields the same graph.
//
// Every edge in the result references nodes that are themselves in the
// result; an edge whose endpoints were filtered out is dropped even when
// its relation type is enabled.
func Filter(g Graph, cfg FilterConfig) Graph {
	out := Graph{Nodes: make([]Node, 0, len(g.Nodes)), Edges: []Edge{}}
	visible := make(map[string]bool, len(g.Nodes))

	for _, n := range g.Nodes {
		if !nodeVisible(n, cfg) {
			continue
		}
		out.Nodes = append(out.Nodes, n)
		visible[n.ID] = true
	}

	if !cfg.ShowRelations {
		return out
	}

	for _, e := range g.Edges {
		if !relationVisible(e.Type, cfg) {
			continue
		}
		if !visible[e.Source] || !visible[e.Target] {
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}

func nodeVisible(n Node, cfg FilterConfig) bool {
	switch {
	case n.HasLabel(LabelCommunity):
		return cfg.ShowCommunities
	case n.HasLabel(LabelEpisodic):
		if !cfg.ShowEpisodes {
			return false
		}
		sub, ok := ClassifyEpisode(n.Name())
		if !ok {
			// Unclassifiable episodes stay visible rather than
			// silently disappearing from the view.
			return true
		}
		return cfg.EpisodeTypes[sub]
	default:
		if !cfg.ShowEntities {
			return false
		}
		typ := EntityType(n)
		if enabled, ok := cfg.EntityTypes[typ]; ok {
			return enabled
		}
		return cfg.OtherEntities
	}
}

func relationVisible(relType string, cfg FilterConfig) bool {
	if enabled, ok := cfg.RelationTypes[relType]; ok {
		return enabled
	}
	return cfg.OtherRelations
}
