// Package events provides a session-scoped publish/subscribe channel
// with typed payloads. Components that need to react to work finishing
// elsewhere (a poller completing, a document changing status) subscribe
// here instead of sharing ambient global state.
package events

import (
	"encoding/json"
	"sort"
	"sync"
)

// Event is a marker interface implemented by every payload type.
type Event interface {
	event()
}

// TaskCompleted is published when a polled task reaches the completed state.
type TaskCompleted struct {
	TaskID   string
	TaskType string
	Result   json.RawMessage
}

// TaskFailed is published when a polled task fails or is cancelled.
type TaskFailed struct {
	TaskID   string
	TaskType string
	Status   string
	Message  string
}

// DocumentChanged is published when a document's pipeline status changes.
type DocumentChanged struct {
	UploadID int64
	Status   string
}

func (TaskCompleted) event()   {}
func (TaskFailed) event()      {}
func (DocumentChanged) event() {}

// Bus dispatches events to subscribers. Dispatch is synchronous and in
// subscription order; handlers must not block.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler for all events and returns a cancel
// function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber. A nil bus
// drops events, so publishing components can treat the bus as optional.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}
