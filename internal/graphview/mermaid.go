package graphview

import (
	"fmt"
	"sort"
	"strings"
)

// Mermaid renders a graph view as a mermaid "graph TD" diagram. Node shape
// encodes the category: communities are stadiums, episodes are rectangles,
// entities are rounded.
func Mermaid(g Graph) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		id := sanitizeID(n.ID)
		label := escapeMermaid(nodeLabel(n))
		switch {
		case n.HasLabel(LabelCommunity):
			b.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", id, label))
		case n.HasLabel(LabelEpisodic):
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		default:
			b.WriteString(fmt.Sprintf("    %s(\"%s\")\n", id, label))
		}
	}

	for _, e := range g.Edges {
		from := sanitizeID(e.Source)
		to := sanitizeID(e.Target)
		if e.Type != "" {
			b.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", from, escapeMermaid(e.Type), to))
		} else {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	return b.String()
}

func nodeLabel(n Node) string {
	if name := n.Name(); name != "" {
		return name
	}
	return n.ID
}

// sanitizeID converts a node id into a safe mermaid identifier.
func sanitizeID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		".", "_",
		"-", "_",
		" ", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
		":", "_",
	)
	return "n_" + replacer.Replace(s)
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "(", "#lpar;")
	s = strings.ReplaceAll(s, ")", "#rpar;")
	s = strings.ReplaceAll(s, "[", "#lsqb;")
	s = strings.ReplaceAll(s, "]", "#rsqb;")
	s = strings.ReplaceAll(s, "{", "#lbrace;")
	s = strings.ReplaceAll(s, "}", "#rbrace;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}
