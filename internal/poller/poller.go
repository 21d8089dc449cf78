// Package poller tracks long-running backend tasks by polling their
// status until a terminal state is reached. The backend offers no push
// channel for task progress, so document processing, community building
// and template generation are all observed this way.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/events"
)

const (
	// DefaultInterval between status fetches.
	DefaultInterval = 2 * time.Second
	// DefaultMaxPolls bounds a polling loop; after this many fetches
	// the loop gives up silently.
	DefaultMaxPolls = 300
)

// TaskFetcher fetches task status. *api.Client satisfies it.
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID string) (*api.Task, error)
}

// Callbacks receive task updates. All callbacks are optional and are
// invoked from the polling goroutine.
type Callbacks struct {
	// OnUpdate fires after every successful status fetch.
	OnUpdate func(*api.Task)
	// OnCompleted fires exactly once when the task completes.
	OnCompleted func(*api.Task)
	// OnFailed fires exactly once when the task fails or is cancelled.
	OnFailed func(*api.Task)

	// onExhausted fires when the iteration bound is reached without a
	// terminal state. Watch gives up silently; Wait uses this to
	// unblock.
	onExhausted func()
}

// Poller runs at most one polling loop per task id. Loops for unrelated
// task ids run concurrently and independently.
type Poller struct {
	fetcher  TaskFetcher
	bus      *events.Bus
	interval time.Duration
	maxPolls int

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithMaxPolls overrides the iteration bound.
func WithMaxPolls(n int) Option {
	return func(p *Poller) { p.maxPolls = n }
}

// WithBus publishes TaskCompleted/TaskFailed events on the given bus.
func WithBus(bus *events.Bus) Option {
	return func(p *Poller) { p.bus = bus }
}

// New creates a poller over the given fetcher.
func New(fetcher TaskFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		maxPolls: DefaultMaxPolls,
		active:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch starts polling the given task. It returns false, without
// starting anything, if a loop for this task id is already active. The
// loop stops when the task reaches a terminal state, the iteration
// bound is hit, or ctx is cancelled.
func (p *Poller) Watch(ctx context.Context, taskID string, cb Callbacks) bool {
	p.mu.Lock()
	if _, exists := p.active[taskID]; exists {
		p.mu.Unlock()
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.active[taskID] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(loopCtx, taskID, cb)
	return true
}

func (p *Poller) loop(ctx context.Context, taskID string, cb Callbacks) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.active, taskID)
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for polls := 0; polls < p.maxPolls; polls++ {
		task, err := p.fetcher.GetTask(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A transient fetch failure is not a task failure.
			// Keep polling; the iteration bound still applies.
		} else {
			if cb.OnUpdate != nil {
				cb.OnUpdate(task)
			}
			if task.Status.Terminal() {
				p.finish(task, cb)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	// Iteration bound reached: give up silently.
	if cb.onExhausted != nil {
		cb.onExhausted()
	}
}

func (p *Poller) finish(task *api.Task, cb Callbacks) {
	if task.Status == api.TaskCompleted {
		if cb.OnCompleted != nil {
			cb.OnCompleted(task)
		}
		p.bus.Publish(events.TaskCompleted{
			TaskID:   task.TaskID,
			TaskType: task.TaskType,
			Result:   task.Result,
		})
		return
	}
	if cb.OnFailed != nil {
		cb.OnFailed(task)
	}
	p.bus.Publish(events.TaskFailed{
		TaskID:   task.TaskID,
		TaskType: task.TaskType,
		Status:   string(task.Status),
		Message:  task.Error,
	})
}

// Active reports whether a polling loop is currently running for the
// given task id.
func (p *Poller) Active(taskID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[taskID]
	return ok
}

// Stop cancels the polling loop for one task id, if any.
func (p *Poller) Stop(taskID string) {
	p.mu.Lock()
	cancel, ok := p.active[taskID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every active polling loop and waits for the loops to
// exit. Called when the owning UI context is torn down.
func (p *Poller) StopAll() {
	p.mu.Lock()
	for _, cancel := range p.active {
		cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Wait polls the task synchronously until it reaches a terminal state
// and returns it. It shares the per-task-id exclusivity with Watch.
func (p *Poller) Wait(ctx context.Context, taskID string, onUpdate func(*api.Task)) (*api.Task, error) {
	done := make(chan *api.Task, 1)
	exhausted := make(chan struct{})
	started := p.Watch(ctx, taskID, Callbacks{
		OnUpdate:    onUpdate,
		OnCompleted: func(t *api.Task) { done <- t },
		OnFailed:    func(t *api.Task) { done <- t },
		onExhausted: func() { close(exhausted) },
	})
	if !started {
		return nil, ErrAlreadyWatching
	}

	select {
	case <-ctx.Done():
		p.Stop(taskID)
		return nil, ctx.Err()
	case <-exhausted:
		return nil, ErrPollsExhausted
	case task := <-done:
		return task, nil
	}
}
