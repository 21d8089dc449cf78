package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .graphdesk.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to graphdesk! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Server URL.
	serverPrompt := promptui.Prompt{
		Label:   "Knowledge graph server URL",
		Default: cfg.ServerURL,
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				return fmt.Errorf("must start with http:// or https://")
			}
			return nil
		},
	}
	serverURL, err := serverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	cfg.ServerURL = serverURL

	// 2. Default knowledge base.
	kbPrompt := promptui.Prompt{
		Label:   "Default knowledge base ID (leave blank for none)",
		Default: "",
		Validate: func(s string) error {
			if s == "" {
				return nil
			}
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				return fmt.Errorf("must be a number")
			}
			return nil
		},
	}
	kbStr, err := kbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}
	if kbStr != "" {
		cfg.KnowledgeBaseID, _ = strconv.ParseInt(kbStr, 10, 64)
	}

	// 3. Split strategy.
	strategyPrompt := promptui.Select{
		Label: "Default split strategy",
		Items: []string{
			"level_1      - split on top-level headings",
			"level_2      - split on second-level headings",
			"token_window - fixed-size token windows",
		},
	}
	strategyIdx, _, err := strategyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("split strategy: %w", err)
	}
	strategies := []SplitStrategy{SplitLevel1, SplitLevel2, SplitTokenWindow}
	cfg.SplitStrategy = strategies[strategyIdx]

	// 4. Include patterns for bulk uploads.
	includePrompt := promptui.Prompt{
		Label:   "Upload include patterns (comma-separated globs)",
		Default: strings.Join(DefaultIncludes, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	cfg.Include = splitAndTrim(includeStr)

	// 5. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(cfg.Exclude, splitAndTrim(excludeStr)...)
	}

	// Save to .graphdesk.yml.
	configPath := ".graphdesk.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	fmt.Println("Run 'graphdesk login' to authenticate against the server.")
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
