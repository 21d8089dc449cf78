package pipeline

import (
	"sort"
	"sync"
	"time"
)

// Tracker reconciles document pipeline state across independently loaded
// document lists and gates which stage actions are currently available.
//
// Different views query the backend independently and may be out of
// sync, so the tracker never treats any single list as authoritative:
// each Update replaces one named source's snapshot, and per-document
// state is resolved from the most recently fetched source that knows the
// document. Local optimistic updates (MarkStatus after a stage call
// returns) take effect immediately and are superseded by the next
// snapshot that is fetched after them.
type Tracker struct {
	mu        sync.Mutex
	sources   map[string]snapshot
	overrides map[int64]override
	now       func() time.Time
}

type snapshot struct {
	docs      map[int64]Document
	fetchedAt time.Time
}

type override struct {
	status     Status
	documentID string
	at         time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sources:   make(map[string]snapshot),
		overrides: make(map[int64]override),
		now:       time.Now,
	}
}

// Update replaces the snapshot for one source (e.g. "library",
// "pipeline-panel") with a freshly fetched document list.
func (t *Tracker) Update(source string, docs []Document) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := snapshot{docs: make(map[int64]Document, len(docs)), fetchedAt: t.now()}
	for _, d := range docs {
		snap.docs[d.ID] = d
	}
	t.sources[source] = snap

	// Authoritative data fetched after an optimistic update wins.
	for id, ov := range t.overrides {
		if _, known := snap.docs[id]; known && snap.fetchedAt.After(ov.at) {
			delete(t.overrides, id)
		}
	}
}

// MarkStatus records an optimistic local status for a document, applied
// until a newer authoritative snapshot reports it.
func (t *Tracker) MarkStatus(id int64, status Status) {
	t.MarkCompleted(id, status, "")
}

// MarkCompleted records an optimistic status together with the graph
// group id returned by the final pipeline stage.
func (t *Tracker) MarkCompleted(id int64, status Status, documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overrides[id] = override{status: status, documentID: documentID, at: t.now()}
}

// Document returns the reconciled view of one document. The base record
// comes from the most recently fetched source that contains it; an
// optimistic override newer than that fetch is applied on top.
func (t *Tracker) Document(id int64) (Document, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolve(id)
}

func (t *Tracker) resolve(id int64) (Document, bool) {
	var (
		doc     Document
		found   bool
		fetched time.Time
	)
	for _, snap := range t.sources {
		d, ok := snap.docs[id]
		if !ok {
			continue
		}
		if !found || snap.fetchedAt.After(fetched) {
			doc, found, fetched = d, true, snap.fetchedAt
		}
	}

	ov, hasOverride := t.overrides[id]
	if hasOverride && (!found || ov.at.After(fetched)) {
		if !found {
			doc = Document{ID: id}
			found = true
		}
		doc.Status = ov.status
		if ov.documentID != "" {
			doc.DocumentID = ov.documentID
		}
	}
	return doc, found
}

// Documents returns the reconciled view of every known document, ordered
// by id.
func (t *Tracker) Documents() []Document {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make(map[int64]bool)
	for _, snap := range t.sources {
		for id := range snap.docs {
			ids[id] = true
		}
	}
	for id := range t.overrides {
		ids[id] = true
	}

	docs := make([]Document, 0, len(ids))
	for id := range ids {
		if d, ok := t.resolve(id); ok {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// CanProceed reports whether the given stage may be invoked for the
// document with the given id, based on its reconciled status.
func (t *Tracker) CanProceed(id int64, stage Stage) bool {
	doc, ok := t.Document(id)
	if !ok {
		return stage == StageUpload
	}
	return CanRun(stage, doc.Status)
}

// StageEnabled reports whether any known document can currently run the
// given stage. This drives view-level action enablement.
func (t *Tracker) StageEnabled(stage Stage) bool {
	if stage == StageUpload {
		return true
	}
	for _, d := range t.Documents() {
		if CanRun(stage, d.Status) {
			return true
		}
	}
	return false
}
