package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("expected default server_url %q, got %q", "http://localhost:8000", cfg.ServerURL)
	}
	if cfg.SplitStrategy != SplitLevel1 {
		t.Errorf("expected default split_strategy %q, got %q", SplitLevel1, cfg.SplitStrategy)
	}
	if cfg.PollIntervalSecs != 2 {
		t.Errorf("expected default poll_interval_secs 2, got %d", cfg.PollIntervalSecs)
	}
	if cfg.PollMaxAttempts != 300 {
		t.Errorf("expected default poll_max_attempts 300, got %d", cfg.PollMaxAttempts)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("expected default retrieval.top_k 10, got %d", cfg.Retrieval.TopK)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.graphdesk.yml")

	original := DefaultConfig()
	original.ServerURL = "https://kg.example.com"
	original.KnowledgeBaseID = 42
	original.SplitStrategy = SplitTokenWindow
	original.Include = []string{"**/*.md", "**/*.pdf"}
	original.Retrieval.TopK = 25

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.ServerURL != original.ServerURL {
		t.Errorf("server_url: got %q, want %q", loaded.ServerURL, original.ServerURL)
	}
	if loaded.KnowledgeBaseID != original.KnowledgeBaseID {
		t.Errorf("knowledge_base_id: got %d, want %d", loaded.KnowledgeBaseID, original.KnowledgeBaseID)
	}
	if loaded.SplitStrategy != original.SplitStrategy {
		t.Errorf("split_strategy: got %q, want %q", loaded.SplitStrategy, original.SplitStrategy)
	}
	if loaded.Retrieval.TopK != original.Retrieval.TopK {
		t.Errorf("retrieval.top_k: got %d, want %d", loaded.Retrieval.TopK, original.Retrieval.TopK)
	}
	if len(loaded.Include) != len(original.Include) {
		t.Errorf("include length: got %d, want %d", len(loaded.Include), len(original.Include))
	}
	for i, v := range loaded.Include {
		if v != original.Include[i] {
			t.Errorf("include[%d]: got %q, want %q", i, v, original.Include[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.SplitStrategy != SplitLevel1 {
		t.Errorf("expected default split strategy, got %q", cfg.SplitStrategy)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Override server URL via env var.
	os.Setenv("GRAPHDESK_SERVER_URL", "https://override.example.com")
	defer os.Unsetenv("GRAPHDESK_SERVER_URL")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ServerURL != "https://override.example.com" {
		t.Errorf("env override failed: got %q", loaded.ServerURL)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateEmptyServerURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty server_url")
	}
}

func TestValidateBadServerURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerURL = "kg.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for server_url without scheme")
	}
}

func TestValidateInvalidStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitStrategy = "paragraphs"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid split_strategy")
	}
}

func TestValidatePollInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollIntervalSecs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero poll_interval_secs")
	}
}

func TestValidatePollMaxAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollMaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero poll_max_attempts")
	}
}

func TestValidateNegativeTopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.TopK = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative retrieval.top_k")
	}
}

func TestValidateBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Viewer.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range viewer.port")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.md", []string{"**/*.md"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
