package config

import (
	"os"
	"path/filepath"
)

// DefaultExcludes are glob patterns excluded from document uploads by default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.lock",
	"*.min.js",
	"*.min.css",
	"package-lock.json",
	"yarn.lock",
}

// DefaultIncludes cover the document formats the backend can parse.
var DefaultIncludes = []string{
	"**/*.md",
	"**/*.txt",
	"**/*.pdf",
	"**/*.docx",
	"**/*.html",
}

// DefaultDataDir returns the directory used for local state (auth token,
// chat history, cached transcripts).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graphdesk"
	}
	return filepath.Join(home, ".graphdesk")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:        "http://localhost:8000",
		DataDir:          DefaultDataDir(),
		SplitStrategy:    SplitLevel1,
		PollIntervalSecs: 2,
		PollMaxAttempts:  300,
		Include:          DefaultIncludes,
		Exclude:          DefaultExcludes,
		Retrieval: RetrievalConfig{
			TopK:               10,
			CrossEncoderScheme: "default",
		},
		Viewer: ViewerConfig{
			Port: 8090,
		},
	}
}
