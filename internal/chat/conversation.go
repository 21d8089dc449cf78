// Package chat holds the retrieval chat transcript and its state
// machine. A conversation is owned by the currently selected knowledge
// base and document context; changing that context clears it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphdesk/graphdesk/internal/api"
)

// State of a conversation. A failed turn surfaces its error through
// Send's return value and LastError, then settles back to idle.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_response"
)

// Role of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Retrieval metadata is populated for
// assistant messages only.
type Message struct {
	ID             string      `json:"id"`
	Role           Role        `json:"role"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	Results        Categorized `json:"results,omitempty"`
	RetrievalCount int         `json:"retrieval_count,omitempty"`
	RetrievalTime  float64     `json:"retrieval_time,omitempty"`
	HasContext     bool        `json:"has_context,omitempty"`
}

// ErrBusy is returned when a send is attempted while a response is
// outstanding. The transcript is unchanged.
var ErrBusy = errors.New("a response is still outstanding")

// ErrContextChanged is returned when the selection or mode changed
// while the response was in flight. The stale reply is dropped; the
// new transcript never sees it.
var ErrContextChanged = errors.New("the retrieval context changed while awaiting the response")

// Retriever executes one retrieval-augmented chat turn. Both the HTTP
// client and the websocket transport satisfy it.
type Retriever interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Conversation is a chat transcript plus in-flight request state.
type Conversation struct {
	mu        sync.Mutex
	retriever Retriever
	history   HistoryStore

	kbID      int64
	sessionID string
	mode      api.SelectionMode
	selected  []string
	available int
	settings  api.RetrievalSettings

	messages  []Message
	state     State
	lastError string

	// gen identifies the current retrieval context. clearLocked bumps
	// it, so a reply that raced a selection or mode change can be
	// recognized as stale and dropped.
	gen uint64
}

// NewConversation creates an idle conversation in all-documents mode.
func NewConversation(retriever Retriever, kbID int64, settings api.RetrievalSettings) *Conversation {
	return &Conversation{
		retriever: retriever,
		kbID:      kbID,
		mode:      api.ModeAll,
		settings:  settings,
		state:     StateIdle,
	}
}

// WithHistory attaches a persistence store; the transcript is saved
// after every completed turn and cleared with the conversation.
func (c *Conversation) WithHistory(store HistoryStore) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = store
	return c
}

// SetSessionID sets the backend retrieval session identifier.
func (c *Conversation) SetSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// SessionID returns the current backend session identifier, which the
// server may have rotated on the last turn.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetMode switches the document-selection mode and clears the
// transcript: retrieval contexts are never mixed within one transcript.
func (c *Conversation) SetMode(mode api.SelectionMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == c.mode {
		return
	}
	c.mode = mode
	c.clearLocked()
}

// SetSelection replaces the selected document set and clears the
// transcript.
func (c *Conversation) SetSelection(documentIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = append([]string(nil), documentIDs...)
	c.clearLocked()
}

// SetAvailable records the size of the available-document set, which
// gates sending in all-documents mode.
func (c *Conversation) SetAvailable(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = n
}

// Send submits one chat turn. The user message is appended
// optimistically; on failure it is retained, no assistant message is
// appended, and the error is returned for surfacing. Sending while a
// response is outstanding returns ErrBusy and changes nothing.
func (c *Conversation) Send(ctx context.Context, text string) (*Message, error) {
	c.mu.Lock()
	if c.state == StateAwaiting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if err := c.checkSelectionLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.messages = append(c.messages, Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	c.state = StateAwaiting
	c.lastError = ""
	gen := c.gen

	req := api.ChatRequest{
		KnowledgeBaseID: c.kbID,
		SessionID:       c.sessionID,
		Mode:            c.mode,
		DocumentIDs:     append([]string(nil), c.selected...),
		Question:        text,
		Settings:        c.settings,
	}
	c.mu.Unlock()

	resp, err := c.retriever.Chat(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		// The transcript was cleared while the request was in flight;
		// this reply belongs to the old retrieval context.
		return nil, ErrContextChanged
	}

	if err != nil {
		c.state = StateIdle
		c.lastError = err.Error()
		return nil, err
	}

	results := Categorize(resp.RetrievalResults)
	msg := Message{
		ID:             uuid.New().String(),
		Role:           RoleAssistant,
		Content:        resp.Answer,
		Timestamp:      time.Now(),
		Results:        results,
		RetrievalCount: results.Total(),
		RetrievalTime:  resp.RetrievalTime,
		HasContext:     results.Total() > 0,
	}
	c.messages = append(c.messages, msg)
	c.state = StateIdle
	if resp.SessionID != "" {
		c.sessionID = resp.SessionID
	}
	c.saveLocked()
	return &msg, nil
}

// checkSelectionLocked enforces the per-mode precondition.
func (c *Conversation) checkSelectionLocked() error {
	switch c.mode {
	case api.ModeSingle:
		if len(c.selected) != 1 {
			return fmt.Errorf("single-document mode requires exactly one selected document, have %d", len(c.selected))
		}
	case api.ModeMultiple:
		if len(c.selected) < 2 {
			return fmt.Errorf("multi-document mode requires at least two selected documents, have %d", len(c.selected))
		}
	case api.ModeAll:
		if c.available == 0 {
			return errors.New("no documents available to retrieve from")
		}
	default:
		return fmt.Errorf("unknown selection mode %q", c.mode)
	}
	return nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// State returns the current conversation state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the message of the most recent failed turn, empty
// after a successful one.
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Clear empties the transcript and returns the conversation to idle.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Conversation) clearLocked() {
	c.messages = nil
	c.state = StateIdle
	c.lastError = ""
	c.gen++
	if c.history != nil {
		if err := c.history.Clear(historyKey); err != nil {
			log.Printf("chat: clearing cached transcript: %v", err)
		}
	}
}

func (c *Conversation) saveLocked() {
	if c.history != nil {
		if err := c.history.Save(historyKey, c.messages); err != nil {
			log.Printf("chat: saving transcript: %v", err)
		}
	}
}

// Restore loads a previously persisted transcript, if any.
func (c *Conversation) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.history == nil {
		return nil
	}
	msgs, err := c.history.Load(historyKey)
	if err != nil {
		return err
	}
	if msgs != nil {
		c.messages = msgs
	}
	return nil
}
