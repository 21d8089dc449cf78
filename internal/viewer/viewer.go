// Package viewer serves a local read-only web view over a knowledge
// base: the document list, parsed document content, the knowledge
// graph, and the cached chat transcript. It talks to the backend with
// the caller's credentials; nothing is writable through it.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/chat"
	"github.com/graphdesk/graphdesk/internal/graphview"
	"github.com/graphdesk/graphdesk/internal/links"
	"github.com/graphdesk/graphdesk/internal/render"
)

// Config holds viewer configuration.
type Config struct {
	Port            int
	KnowledgeBaseID int64
	AllowAll        bool // allow all CORS origins (dev mode)
}

// TranscriptLoader supplies the cached chat transcript. *localstore.Store
// satisfies it; nil disables the transcript page.
type TranscriptLoader interface {
	Load(key string) ([]chat.Message, error)
}

// transcriptKey mirrors the key the chat package persists under.
const transcriptKey = "llm_chat_history"

// Server is the local viewer HTTP server.
type Server struct {
	cfg        Config
	client     *api.Client
	transcript TranscriptLoader
	renderer   *render.Renderer
	router     chi.Router
	httpServer *http.Server
}

// New creates a viewer over the given API client.
func New(cfg Config, client *api.Client, transcript TranscriptLoader) *Server {
	s := &Server{
		cfg:        cfg,
		client:     client,
		transcript: transcript,
		renderer:   render.New(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// HTML pages.
	r.Get("/", s.handleIndex)
	r.Get("/documents/{id}", s.handleDocument)
	r.Get("/graph", s.handleGraph)
	r.Get("/chat", s.handleChat)

	// JSON endpoints.
	r.Get("/api/documents", s.handleDocumentsJSON)
	r.Get("/api/graph", s.handleGraphJSON)

	// Image and attachment links inside parsed content point at backend
	// paths; proxy them so the browser needs no backend credentials.
	r.Get("/api/v1/documents/{id}/images/*", s.handleProxy)
	r.Get("/api/v1/documents/{id}/attachments/*", s.handleProxy)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("viewer listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := s.client.ListDocuments(r.Context(), s.cfg.KnowledgeBaseID)
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}
	s.renderPage(w, "index", indexData{KnowledgeBaseID: s.cfg.KnowledgeBaseID, Documents: docs})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad document id", http.StatusBadRequest)
		return
	}

	doc, err := s.client.GetDocument(r.Context(), id)
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}
	content, err := s.client.GetDocumentContent(r.Context(), id)
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}

	// Once processing assigns a graph group id, embedded image and
	// attachment links carry it; rewrite them to the numeric upload id
	// the proxy routes understand.
	if doc.DocumentID != "" {
		content = links.NewRewriter(doc.DocumentID, doc.ID).Rewrite(content)
	}

	body, err := s.renderer.HTML(content)
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}
	s.renderPage(w, "document", documentData{Document: doc, Body: body})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.client.GetGraph(r.Context(), s.cfg.KnowledgeBaseID, groupIDsFromQuery(r))
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}
	filtered := graphview.Filter(*g, filterFromQuery(r))
	s.renderPage(w, "graph", graphData{
		NodeCount: len(filtered.Nodes),
		EdgeCount: len(filtered.Edges),
		Mermaid:   graphview.Mermaid(filtered),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var messages []chat.Message
	if s.transcript != nil {
		var err error
		messages, err = s.transcript.Load(transcriptKey)
		if err != nil {
			s.renderErrorPage(w, err)
			return
		}
	}
	s.renderPage(w, "chat", chatData{Messages: messages})
}

func (s *Server) handleDocumentsJSON(w http.ResponseWriter, r *http.Request) {
	docs, err := s.client.ListDocuments(r.Context(), s.cfg.KnowledgeBaseID)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, docs)
}

func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	g, err := s.client.GetGraph(r.Context(), s.cfg.KnowledgeBaseID, groupIDsFromQuery(r))
	if err != nil {
		writeJSONError(w, err)
		return
	}
	filtered := graphview.Filter(*g, filterFromQuery(r))
	writeJSON(w, filtered)
}

// handleProxy forwards image/attachment requests to the backend with
// the viewer's credentials.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	url := s.client.BaseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		http.Error(w, "bad proxy request", http.StatusBadGateway)
		return
	}
	if s.client.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.client.Token)
	}

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		http.Error(w, "backend unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// groupIDsFromQuery reads an optional comma-separated group_ids filter.
func groupIDsFromQuery(r *http.Request) []string {
	raw := r.URL.Query().Get("group_ids")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// filterFromQuery builds a FilterConfig from optional query toggles.
// Categories default to on; pass episodes=0 etc. to hide one.
func filterFromQuery(r *http.Request) graphview.FilterConfig {
	cfg := graphview.DefaultFilterConfig()
	q := r.URL.Query()
	if q.Get("episodes") == "0" {
		cfg.ShowEpisodes = false
	}
	if q.Get("entities") == "0" {
		cfg.ShowEntities = false
	}
	if q.Get("communities") == "0" {
		cfg.ShowCommunities = false
	}
	if q.Get("relations") == "0" {
		cfg.ShowRelations = false
	}
	return cfg
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
