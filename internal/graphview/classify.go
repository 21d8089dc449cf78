package graphview

import (
	"path"
	"regexp"
	"strings"
)

// The ingestion service does not return an explicit subtype for episodic
// nodes; it has to be inferred from the naming convention used when the
// episode was created. The known conventions are:
//
//	"invoice.pdf"                       document-level episode
//	"invoice.pdf - Section 3"           section episode
//	"Image: diagram.png (invoice.pdf)"  image episode
//	"Table: totals (invoice.pdf)"       table episode
//
// Classification lives here, in one place, so that a future explicit
// subtype field only has to replace this file.

var sectionPattern = regexp.MustCompile(`(?i)(?:-\s*section\s+\d+|_section_\d+|\bchunk\s+\d+)`)

// documentExtensions are file extensions recognized as document-level
// episode names.
var documentExtensions = map[string]bool{
	".pdf": true, ".md": true, ".txt": true, ".docx": true,
	".doc": true, ".html": true, ".pptx": true, ".xlsx": true,
}

// ClassifyEpisode infers the subtype of an episodic node from its name.
// ok is false when the name matches no known convention; such nodes are
// retained by the filter whenever episodes are shown at all.
func ClassifyEpisode(name string) (EpisodeType, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "image:") || strings.HasPrefix(lower, "image "):
		return EpisodeImage, true
	case strings.HasPrefix(lower, "table:") || strings.HasPrefix(lower, "table "):
		return EpisodeTable, true
	case sectionPattern.MatchString(lower):
		return EpisodeSection, true
	case documentExtensions[path.Ext(lower)]:
		return EpisodeDocument, true
	}
	return "", false
}

// EntityType returns the type name of an entity node. It prefers the
// explicit entity_type property, then any label beyond the generic graph
// labels, and finally falls back to "Entity".
func EntityType(n Node) string {
	if v, ok := n.Properties["entity_type"].(string); ok && v != "" {
		return v
	}
	for _, l := range n.Labels {
		if l != LabelEntity && l != LabelEpisodic && l != LabelCommunity {
			return l
		}
	}
	return LabelEntity
}
