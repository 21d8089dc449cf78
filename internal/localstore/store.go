// Package localstore persists the small amount of client-side state the
// workbench keeps between runs: the auth token and user, per-knowledge-
// base retrieval session ids, cached retrieval settings and the chat
// transcript cache. It is a key-value store over SQLite, keyed by the
// same literal names the platform's web client uses in browser local
// storage, so state stays portable across the two clients.
package localstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/chat"
)

// Well-known keys.
const (
	KeyAuthToken         = "auth_token"
	KeyAuthUser          = "auth_user"
	KeyRetrievalSettings = "retrievalSettings"
	KeyChatHistory       = "llm_chat_history"
)

// SessionKey returns the retrieval session key for a knowledge base.
func SessionKey(kbID int64) string {
	return fmt.Sprintf("mem0_session_id_%d", kbID)
}

// Store is a SQLite-backed key-value store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory store (useful for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the raw value for a key, or "" when absent.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

// Set stores a raw value under a key.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// getJSON unmarshals the value for a key into out; absent keys leave
// out untouched and return false.
func (s *Store) getJSON(key string, out interface{}) (bool, error) {
	raw, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(key string, in interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// Token returns the stored auth token, or "".
func (s *Store) Token() (string, error) { return s.Get(KeyAuthToken) }

// SetToken stores the auth token.
func (s *Store) SetToken(token string) error { return s.Set(KeyAuthToken, token) }

// User returns the stored user, or nil when not logged in.
func (s *Store) User() (*api.User, error) {
	var u api.User
	ok, err := s.getJSON(KeyAuthUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SetUser stores the authenticated user.
func (s *Store) SetUser(u api.User) error { return s.setJSON(KeyAuthUser, u) }

// ClearAuth removes the token and user, logging out locally.
func (s *Store) ClearAuth() error {
	if err := s.Delete(KeyAuthToken); err != nil {
		return err
	}
	return s.Delete(KeyAuthUser)
}

// RetrievalSettings returns cached retrieval settings and whether any
// were stored.
func (s *Store) RetrievalSettings() (api.RetrievalSettings, bool, error) {
	var settings api.RetrievalSettings
	ok, err := s.getJSON(KeyRetrievalSettings, &settings)
	return settings, ok, err
}

// SetRetrievalSettings caches retrieval settings.
func (s *Store) SetRetrievalSettings(settings api.RetrievalSettings) error {
	return s.setJSON(KeyRetrievalSettings, settings)
}

// SessionID returns the retrieval session id for a knowledge base, or "".
func (s *Store) SessionID(kbID int64) (string, error) {
	return s.Get(SessionKey(kbID))
}

// SetSessionID stores the retrieval session id for a knowledge base.
func (s *Store) SetSessionID(kbID int64, id string) error {
	return s.Set(SessionKey(kbID), id)
}

// Load implements chat.HistoryStore.
func (s *Store) Load(key string) ([]chat.Message, error) {
	var msgs []chat.Message
	ok, err := s.getJSON(key, &msgs)
	if err != nil || !ok {
		return nil, err
	}
	return msgs, nil
}

// Save implements chat.HistoryStore.
func (s *Store) Save(key string, messages []chat.Message) error {
	return s.setJSON(key, messages)
}

// Clear implements chat.HistoryStore.
func (s *Store) Clear(key string) error { return s.Delete(key) }
