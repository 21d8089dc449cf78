package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/pipeline"
)

const testToken = "test-token"

// fakeBackend is an in-memory stand-in for the knowledge platform server.
// It implements just enough of the REST surface for the client tests:
// auth, document lifecycle, tasks, graph and chat.
type fakeBackend struct {
	mu sync.Mutex

	nextDocID  int64
	nextTaskID int
	docs       map[int64]*fakeDoc
	tasks      map[string]*fakeTask
	kbs        map[int64]api.KnowledgeBase
	nextKBID   int64

	// lastGroupIDs records the group_ids query of the most recent
	// graph fetch.
	lastGroupIDs string
}

type fakeDoc struct {
	doc      pipeline.Document
	content  string
	versions int
}

// fakeTask completes after completeAfter status fetches.
type fakeTask struct {
	task          api.Task
	docID         int64
	fetches       int
	completeAfter int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:  make(map[int64]*fakeDoc),
		tasks: make(map[string]*fakeTask),
		kbs:   make(map[int64]api.KnowledgeBase),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

// router builds the chi handler tree for the fake server.
func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/v1/auth/login", b.handleLogin)
	r.Post("/api/v1/auth/register", b.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)

		r.Post("/api/v1/documents/upload", b.handleUpload)
		r.Get("/api/v1/documents/{id}", b.handleGetDocument)
		r.Get("/api/v1/documents/{id}/content", b.handleGetContent)
		r.Post("/api/v1/documents/{id}/parse", b.handleParse)
		r.Post("/api/v1/documents/{id}/versions", b.handleCreateVersion)
		r.Post("/api/v1/documents/{id}/split", b.handleSplit)
		r.Post("/api/v1/documents/{id}/process", b.handleProcess)

		r.Get("/api/v1/tasks/{id}", b.handleGetTask)

		r.Get("/api/v1/knowledge-bases", b.handleListKBs)
		r.Post("/api/v1/knowledge-bases", b.handleCreateKB)
		r.Get("/api/v1/knowledge-bases/{id}/documents", b.handleListDocuments)
		r.Get("/api/v1/knowledge-bases/{id}/graph", b.handleGetGraph)
		r.Post("/api/v1/knowledge-bases/{id}/communities/build", b.handleBuildCommunities)

		r.Post("/api/v1/chat", b.handleChat)
	})

	return r
}

func (b *fakeBackend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if creds.Username != "demo" || creds.Password != "secret" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, api.Session{
		Token: testToken,
		User:  api.User{ID: 1, Username: "demo"},
	})
}

func (b *fakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
	}
	_ = json.NewDecoder(r.Body).Decode(&creds)
	writeJSON(w, http.StatusOK, api.Session{
		Token: testToken,
		User:  api.User{ID: 2, Username: creds.Username},
	})
}

func (b *fakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	_, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	if r.FormValue("knowledge_base_id") == "" {
		writeError(w, http.StatusBadRequest, "missing knowledge_base_id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextDocID++
	doc := pipeline.Document{
		ID:         b.nextDocID,
		FileName:   hdr.Filename,
		Size:       hdr.Size,
		UploadedAt: time.Now().UTC(),
		Status:     pipeline.StatusValidated,
	}
	b.docs[doc.ID] = &fakeDoc{doc: doc}
	writeJSON(w, http.StatusCreated, doc)
}

func (b *fakeBackend) docFromURL(w http.ResponseWriter, r *http.Request) *fakeDoc {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad document id")
		return nil
	}
	d, ok := b.docs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return nil
	}
	return d
}

func (b *fakeBackend) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d := b.docFromURL(w, r); d != nil {
		writeJSON(w, http.StatusOK, d.doc)
	}
}

func (b *fakeBackend) handleGetContent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d := b.docFromURL(w, r); d != nil {
		writeJSON(w, http.StatusOK, map[string]string{"content": d.content})
	}
}

func (b *fakeBackend) handleParse(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.docFromURL(w, r)
	if d == nil {
		return
	}
	if !pipeline.CanRun(pipeline.StageParse, d.doc.Status) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot parse document in status %s", d.doc.Status))
		return
	}
	d.content = fmt.Sprintf("# %s\n\nIntroductory text.\n\n## Background\n\nSome background.\n\n## Details\n\nMore details.\n", d.doc.FileName)
	d.doc.Status = pipeline.StatusParsed
	writeJSON(w, http.StatusOK, api.ParseResult{
		UploadID: d.doc.ID,
		Status:   string(d.doc.Status),
		Content:  d.content,
	})
}

func (b *fakeBackend) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.docFromURL(w, r)
	if d == nil {
		return
	}
	if !pipeline.CanRun(pipeline.StageVersion, d.doc.Status) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot version document in status %s", d.doc.Status))
		return
	}
	d.versions++
	writeJSON(w, http.StatusCreated, api.Version{
		ID:       int64(d.versions),
		UploadID: d.doc.ID,
		Number:   d.versions,
	})
}

func (b *fakeBackend) handleSplit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Strategy string `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Strategy == "" {
		writeError(w, http.StatusBadRequest, "missing strategy")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.docFromURL(w, r)
	if d == nil {
		return
	}
	if !pipeline.CanRun(pipeline.StageSplit, d.doc.Status) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot split document in status %s", d.doc.Status))
		return
	}

	// One section per second-level heading in the parsed content.
	var sections []api.Section
	for i, part := range strings.Split(d.content, "## ")[1:] {
		title, _, _ := strings.Cut(part, "\n")
		sections = append(sections, api.Section{
			Index:      i,
			Title:      title,
			Content:    part,
			TokenCount: len(strings.Fields(part)),
		})
	}
	result := api.SplitResult{
		UploadID: d.doc.ID,
		Strategy: in.Strategy,
		Sections: sections,
	}
	result.Statistics.TotalSections = len(sections)
	for _, s := range sections {
		result.Statistics.TotalTokens += s.TokenCount
	}
	d.doc.Status = pipeline.StatusChunked
	writeJSON(w, http.StatusOK, result)
}

func (b *fakeBackend) handleProcess(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.docFromURL(w, r)
	if d == nil {
		return
	}
	if !pipeline.CanRun(pipeline.StageProcess, d.doc.Status) {
		writeError(w, http.StatusConflict, fmt.Sprintf("cannot process document in status %s", d.doc.Status))
		return
	}

	b.nextTaskID++
	id := fmt.Sprintf("task-%d", b.nextTaskID)
	b.tasks[id] = &fakeTask{
		task: api.Task{
			TaskID:   id,
			TaskType: api.TaskTypeProcessDocument,
			Status:   api.TaskPending,
		},
		docID:         d.doc.ID,
		completeAfter: 3,
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (b *fakeBackend) handleBuildCommunities(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTaskID++
	id := fmt.Sprintf("task-%d", b.nextTaskID)
	b.tasks[id] = &fakeTask{
		task: api.Task{
			TaskID:   id,
			TaskType: api.TaskTypeBuildCommunities,
			Status:   api.TaskPending,
		},
		completeAfter: 2,
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

// handleGetTask advances the scripted task one step per fetch:
// pending, then running, then completed with a result payload.
func (b *fakeBackend) handleGetTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := chi.URLParam(r, "id")
	ft, ok := b.tasks[id]
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	ft.fetches++
	switch {
	case ft.fetches >= ft.completeAfter:
		ft.task.Status = api.TaskCompleted
		ft.task.Progress = 1
		if ft.task.TaskType == api.TaskTypeProcessDocument && ft.task.Result == nil {
			groupID := fmt.Sprintf("grp-%d", ft.docID)
			ft.task.Result, _ = json.Marshal(api.ProcessResult{
				DocumentID:    groupID,
				TotalSections: 2,
				TotalEpisodes: 5,
			})
			if d, ok := b.docs[ft.docID]; ok {
				d.doc.Status = pipeline.StatusCompleted
				d.doc.DocumentID = groupID
			}
		}
	case ft.fetches > 1:
		ft.task.Status = api.TaskRunning
		ft.task.Progress = float64(ft.fetches) / float64(ft.completeAfter)
	}
	writeJSON(w, http.StatusOK, ft.task)
}

func (b *fakeBackend) handleListKBs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kbs := []api.KnowledgeBase{}
	for _, kb := range b.kbs {
		kbs = append(kbs, kb)
	}
	writeJSON(w, http.StatusOK, kbs)
}

func (b *fakeBackend) handleCreateKB(w http.ResponseWriter, r *http.Request) {
	var in api.KnowledgeBaseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextKBID++
	kb := api.KnowledgeBase{
		ID:          b.nextKBID,
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     1,
		CreatedAt:   time.Now().UTC(),
	}
	b.kbs[kb.ID] = kb
	writeJSON(w, http.StatusCreated, kb)
}

func (b *fakeBackend) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := []pipeline.Document{}
	for _, d := range b.docs {
		docs = append(docs, d.doc)
	}
	writeJSON(w, http.StatusOK, docs)
}

func (b *fakeBackend) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.lastGroupIDs = r.URL.Query().Get("group_ids")
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "ep1", "labels": []string{"Episodic"}, "properties": map[string]interface{}{"name": "handbook.md"}},
			{"id": "en1", "labels": []string{"Entity", "Person"}, "properties": map[string]interface{}{"name": "Ada"}},
		},
		"edges": []map[string]interface{}{
			{"id": "e1", "source": "ep1", "target": "en1", "type": "MENTIONS"},
		},
	})
}

func (b *fakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	writeJSON(w, http.StatusOK, api.ChatResponse{
		Answer: "Answer to: " + req.Question,
		RetrievalResults: []api.RetrievalItem{
			{Type: "entity", Name: "Ada", Score: 0.9},
			{Type: "episode", Name: "handbook.md", Score: 0.8},
		},
		RetrievalTime: 0.05,
		SessionID:     req.SessionID,
	})
}

// newTestServer starts the fake backend and returns an authenticated client.
func newTestServer(t *testing.T) (*fakeBackend, *api.Client) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)
	return backend, api.NewClient(srv.URL, testToken)
}
