package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/config"
	"github.com/graphdesk/graphdesk/internal/localstore"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `graphdesk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the local state store under the configured data dir.
func openStore(cfg *config.Config) (*localstore.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	store, err := localstore.Open(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	return store, nil
}

// newClient builds an API client, attaching the saved session token if
// one exists.
func newClient(cfg *config.Config, store *localstore.Store) (*api.Client, error) {
	token := ""
	if store != nil {
		saved, err := store.Token()
		if err != nil {
			return nil, fmt.Errorf("reading saved token: %w", err)
		}
		token = saved
	}
	return api.NewClient(cfg.ServerURL, token), nil
}

// requireAuthClient is newClient but fails when no session is stored.
func requireAuthClient(cfg *config.Config, store *localstore.Store) (*api.Client, error) {
	client, err := newClient(cfg, store)
	if err != nil {
		return nil, err
	}
	if client.Token == "" {
		return nil, fmt.Errorf("not logged in; run `graphdesk login` first")
	}
	return client, nil
}

// resolveKB picks the knowledge base id from the flag value or the
// configured default.
func resolveKB(cfg *config.Config, flagVal int64) (int64, error) {
	if flagVal > 0 {
		return flagVal, nil
	}
	if cfg.KnowledgeBaseID > 0 {
		return cfg.KnowledgeBaseID, nil
	}
	return 0, fmt.Errorf("no knowledge base selected; pass --kb or set knowledge_base_id in %s", cfgFile)
}

// parseID parses a positional numeric id argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

// retrievalSettings resolves the effective retrieval settings: stored
// overrides win over the config defaults.
func retrievalSettings(cfg *config.Config, store *localstore.Store) (api.RetrievalSettings, error) {
	settings := api.RetrievalSettings{
		TopK:               cfg.Retrieval.TopK,
		CrossEncoderScheme: cfg.Retrieval.CrossEncoderScheme,
	}
	if store == nil {
		return settings, nil
	}
	saved, ok, err := store.RetrievalSettings()
	if err != nil {
		return settings, fmt.Errorf("reading retrieval settings: %w", err)
	}
	if ok {
		return saved, nil
	}
	return settings, nil
}
