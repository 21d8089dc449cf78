// Package links rewrites backend-relative content links embedded in
// parsed document markdown so they resolve against a specific upload.
//
// The parsing service scopes image and attachment URLs by the logical
// group id that correlates a document's pipeline artifacts. The document
// viewer serves the same assets scoped by the numeric upload id, so every
// link belonging to the selected document has to be rewritten before
// rendering. Links that reference a different group id, and plain
// external links, are left untouched.
package links

import (
	"fmt"
	"regexp"
)

var (
	imagePattern      = regexp.MustCompile(`(/api/v1/documents/)([^/\s)"']+)(/images/[^\s)"']+)`)
	attachmentPattern = regexp.MustCompile(`(/api/v1/documents/)([^/\s)"']+)(/attachments/[^\s)"']+/(?:view|download)[^\s)"']*)`)
)

// Rewriter rewrites content links scoped to one logical document.
type Rewriter struct {
	groupID  string
	uploadID int64
}

// NewRewriter creates a rewriter that maps links scoped to groupID onto
// the upload with the given numeric id.
func NewRewriter(groupID string, uploadID int64) *Rewriter {
	return &Rewriter{groupID: groupID, uploadID: uploadID}
}

// Rewrite returns content with every image and attachment link that
// references the rewriter's group id re-scoped to the numeric upload id.
// Query strings and fragments survive unchanged, and the output remains
// a valid markdown/HTML fragment.
func (rw *Rewriter) Rewrite(content string) string {
	out := rw.rewriteFamily(content, imagePattern)
	out = rw.rewriteFamily(out, attachmentPattern)
	return out
}

func (rw *Rewriter) rewriteFamily(content string, pattern *regexp.Regexp) string {
	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := pattern.FindStringSubmatch(match)
		if parts[2] != rw.groupID {
			return match
		}
		return fmt.Sprintf("%s%d%s", parts[1], rw.uploadID, parts[3])
	})
}
