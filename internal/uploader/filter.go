package uploader

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludedDirs are directory names skipped during traversal.
var defaultExcludedDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	".graphdesk",
	"dist",
	"build",
	".venv",
	".idea",
	".vscode",
}

// shouldExcludeDir checks whether a directory name matches any default
// exclusion. Used during traversal to skip entire subtrees.
func shouldExcludeDir(name string) bool {
	for _, excl := range defaultExcludedDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks if relPath matches any of the given glob patterns.
// Uses doublestar for ** support.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}

		// Also try matching against just the filename.
		base := filepath.Base(normalized)
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
