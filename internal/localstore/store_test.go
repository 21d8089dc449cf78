package localstore

import (
	"testing"
	"time"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/chat"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	s := setupStore(t)

	if v, _ := s.Get("missing"); v != "" {
		t.Errorf("expected empty value for missing key, got %q", v)
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _ := s.Get("k"); v != "v2" {
		t.Errorf("expected v2, got %q", v)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v, _ := s.Get("k"); v != "" {
		t.Errorf("expected empty after delete, got %q", v)
	}
	if err := s.Delete("k"); err != nil {
		t.Errorf("deleting absent key should not error: %v", err)
	}
}

func TestAuthRoundTrip(t *testing.T) {
	s := setupStore(t)

	if u, err := s.User(); err != nil || u != nil {
		t.Errorf("expected no user initially, got %v, %v", u, err)
	}

	if err := s.SetToken("tok-123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetUser(api.User{ID: 7, Username: "alice"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	tok, _ := s.Token()
	if tok != "tok-123" {
		t.Errorf("unexpected token %q", tok)
	}
	u, err := s.User()
	if err != nil || u == nil || u.Username != "alice" {
		t.Errorf("unexpected user %v, %v", u, err)
	}

	if err := s.ClearAuth(); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}
	tok, _ = s.Token()
	u, _ = s.User()
	if tok != "" || u != nil {
		t.Error("auth state should be cleared")
	}
}

func TestRetrievalSettings(t *testing.T) {
	s := setupStore(t)

	if _, ok, _ := s.RetrievalSettings(); ok {
		t.Error("expected no cached settings initially")
	}

	want := api.RetrievalSettings{TopK: 12, CrossEncoderScheme: "bge-reranker"}
	if err := s.SetRetrievalSettings(want); err != nil {
		t.Fatalf("SetRetrievalSettings: %v", err)
	}

	got, ok, err := s.RetrievalSettings()
	if err != nil || !ok {
		t.Fatalf("RetrievalSettings: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSessionIDPerKnowledgeBase(t *testing.T) {
	s := setupStore(t)

	s.SetSessionID(1, "sess-a")
	s.SetSessionID(2, "sess-b")

	if id, _ := s.SessionID(1); id != "sess-a" {
		t.Errorf("kb 1: got %q", id)
	}
	if id, _ := s.SessionID(2); id != "sess-b" {
		t.Errorf("kb 2: got %q", id)
	}
	if id, _ := s.SessionID(3); id != "" {
		t.Errorf("kb 3: expected empty, got %q", id)
	}
}

func TestChatHistoryStore(t *testing.T) {
	s := setupStore(t)

	if msgs, err := s.Load(KeyChatHistory); err != nil || msgs != nil {
		t.Errorf("expected empty history, got %v, %v", msgs, err)
	}

	history := []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Content: "hi", Timestamp: time.Now().UTC()},
		{ID: "m2", Role: chat.RoleAssistant, Content: "hello", RetrievalCount: 3, HasContext: true},
	}
	if err := s.Save(KeyChatHistory, history); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(KeyChatHistory)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].RetrievalCount != 3 {
		t.Errorf("unexpected history %+v", got)
	}

	if err := s.Clear(KeyChatHistory); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if msgs, _ := s.Load(KeyChatHistory); msgs != nil {
		t.Error("history should be cleared")
	}
}
