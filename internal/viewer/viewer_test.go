package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/chat"
	"github.com/graphdesk/graphdesk/internal/graphview"
	"github.com/graphdesk/graphdesk/internal/pipeline"
)

// fakeTranscript satisfies TranscriptLoader.
type fakeTranscript struct {
	messages []chat.Message
}

func (f *fakeTranscript) Load(key string) ([]chat.Message, error) { return f.messages, nil }

// newBackend serves the minimal upstream endpoints the viewer consumes.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	doc := pipeline.Document{
		ID:         7,
		FileName:   "handbook.md",
		Size:       512,
		UploadedAt: time.Now().UTC(),
		Status:     pipeline.StatusCompleted,
		DocumentID: "grp-abc",
	}

	r := chi.NewRouter()
	r.Get("/api/v1/knowledge-bases/{id}/documents", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]pipeline.Document{doc})
	})
	r.Get("/api/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(doc)
	})
	r.Get("/api/v1/documents/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content": "# Handbook\n\n![figure](/api/v1/documents/grp-abc/images/fig1.png)\n",
		})
	})
	r.Get("/api/v1/knowledge-bases/{id}/graph", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(graphview.Graph{
			Nodes: []graphview.Node{
				{ID: "ep1", Labels: []string{"Episodic"}, Properties: map[string]interface{}{"name": "handbook.md"}},
				{ID: "en1", Labels: []string{"Entity"}, Properties: map[string]interface{}{"name": "Ada"}},
			},
			Edges: []graphview.Edge{
				{ID: "e1", Source: "ep1", Target: "en1", Type: "MENTIONS"},
			},
		})
	})
	r.Get("/api/v1/documents/{id}/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newViewer(t *testing.T, transcript TranscriptLoader) *Server {
	t.Helper()
	backend := newBackend(t)
	client := api.NewClient(backend.URL, "tok")
	return New(Config{KnowledgeBaseID: 1}, client, transcript)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsDocuments(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "handbook.md") || !strings.Contains(body, "completed") {
		t.Errorf("document missing from index: %s", body)
	}
}

func TestDocumentPageRewritesLinks(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/documents/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "/api/v1/documents/7/images/fig1.png") {
		t.Errorf("image link not rewritten to upload id: %s", body)
	}
	if strings.Contains(body, "grp-abc/images") {
		t.Errorf("group-id link survived rewriting: %s", body)
	}
}

func TestGraphPageRendersMermaid(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "graph TD") {
		t.Errorf("mermaid source missing: %s", body)
	}
	if !strings.Contains(body, "2 nodes") || !strings.Contains(body, "1 edges") {
		t.Errorf("counts missing: %s", body)
	}
}

func TestGraphJSONFilterToggles(t *testing.T) {
	s := newViewer(t, nil)

	rec := get(t, s, "/api/graph")
	var full graphview.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &full); err != nil {
		t.Fatalf("decoding graph: %v", err)
	}
	if len(full.Nodes) != 2 || len(full.Edges) != 1 {
		t.Fatalf("unexpected full graph: %d nodes, %d edges", len(full.Nodes), len(full.Edges))
	}

	// Hiding entities removes the entity node and the dangling edge.
	rec = get(t, s, "/api/graph?entities=0")
	var filtered graphview.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decoding graph: %v", err)
	}
	if len(filtered.Nodes) != 1 || len(filtered.Edges) != 0 {
		t.Errorf("entity toggle not applied: %d nodes, %d edges", len(filtered.Nodes), len(filtered.Edges))
	}
}

func TestChatTranscriptPage(t *testing.T) {
	transcript := &fakeTranscript{messages: []chat.Message{
		{Role: chat.RoleUser, Content: "Who approves leave?"},
		{Role: chat.RoleAssistant, Content: "The line manager.", HasContext: true, RetrievalCount: 3},
	}}
	s := newViewer(t, transcript)

	rec := get(t, s, "/chat")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Who approves leave?") || !strings.Contains(body, "The line manager.") {
		t.Errorf("messages missing: %s", body)
	}
	if !strings.Contains(body, "3 sources") {
		t.Errorf("retrieval count missing: %s", body)
	}
}

func TestChatPageWithoutStore(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/chat")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No cached conversation") {
		t.Errorf("expected empty transcript notice")
	}
}

func TestImageProxy(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/api/v1/documents/7/images/fig1.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("unexpected proxied body: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type not forwarded: %q", ct)
	}
}

func TestHealthz(t *testing.T) {
	s := newViewer(t, nil)
	rec := get(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
