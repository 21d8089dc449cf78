package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (GRAPHDESK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: GRAPHDESK_SERVER_URL -> server_url, etc.
	if err := k.Load(env.Provider("GRAPHDESK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "GRAPHDESK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validStrategies is the set of recognized split strategy values.
var validStrategies = map[SplitStrategy]bool{
	SplitLevel1:      true,
	SplitLevel2:      true,
	SplitTokenWindow: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("invalid server_url %q: must start with http:// or https://", c.ServerURL)
	}

	if c.SplitStrategy != "" && !validStrategies[c.SplitStrategy] {
		return fmt.Errorf("invalid split_strategy %q: must be one of level_1, level_2, token_window", c.SplitStrategy)
	}

	if c.PollIntervalSecs < 1 {
		return fmt.Errorf("poll_interval_secs must be at least 1")
	}

	if c.PollMaxAttempts < 1 {
		return fmt.Errorf("poll_max_attempts must be at least 1")
	}

	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval.top_k must be non-negative")
	}

	if c.Viewer.Port < 0 || c.Viewer.Port > 65535 {
		return fmt.Errorf("viewer.port must be a valid port number")
	}

	return nil
}
