package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/events"
)

// fakeFetcher serves a scripted sequence of statuses per task id,
// repeating the last entry once exhausted.
type fakeFetcher struct {
	mu       sync.Mutex
	sequence map[string][]api.TaskStatus
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		sequence: make(map[string][]api.TaskStatus),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) GetTask(ctx context.Context, taskID string) (*api.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seq := f.sequence[taskID]
	n := f.calls[taskID]
	f.calls[taskID]++

	idx := n
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	return &api.Task{
		TaskID:   taskID,
		TaskType: api.TaskTypeProcessDocument,
		Status:   seq[idx],
		Result:   []byte(`{"total_episodes":5,"total_sections":3}`),
	}, nil
}

func (f *fakeFetcher) callCount(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[taskID]
}

func TestPollUntilCompleted(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskPending, api.TaskRunning, api.TaskCompleted}

	bus := events.NewBus()
	var busEvents int32
	bus.Subscribe(func(e events.Event) {
		if _, ok := e.(events.TaskCompleted); ok {
			atomic.AddInt32(&busEvents, 1)
		}
	})

	p := New(fetcher, WithInterval(time.Millisecond), WithBus(bus))

	task, err := p.Wait(context.Background(), "t1", nil)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if task.Status != api.TaskCompleted {
		t.Errorf("expected completed, got %s", task.Status)
	}

	// Polling issued exactly three fetches (pending, running, completed)
	// and nothing afterwards.
	got := fetcher.callCount("t1")
	if got != 3 {
		t.Errorf("expected 3 polls, got %d", got)
	}
	time.Sleep(10 * time.Millisecond)
	if fetcher.callCount("t1") != got {
		t.Error("polling continued after terminal state")
	}
	if atomic.LoadInt32(&busEvents) != 1 {
		t.Errorf("expected exactly 1 TaskCompleted event, got %d", busEvents)
	}
	if p.Active("t1") {
		t.Error("task should no longer be active")
	}
}

func TestTerminalCallbackFiresOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskRunning, api.TaskFailed}

	p := New(fetcher, WithInterval(time.Millisecond))

	var completed, failed int32
	done := make(chan struct{})
	p.Watch(context.Background(), "t1", Callbacks{
		OnCompleted: func(*api.Task) { atomic.AddInt32(&completed, 1) },
		OnFailed: func(*api.Task) {
			atomic.AddInt32(&failed, 1)
			close(done)
		},
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for terminal callback")
	}
	time.Sleep(10 * time.Millisecond)

	if atomic.LoadInt32(&failed) != 1 {
		t.Errorf("expected OnFailed once, got %d", failed)
	}
	if atomic.LoadInt32(&completed) != 0 {
		t.Errorf("OnCompleted should not fire for a failed task, got %d", completed)
	}
}

func TestDuplicateWatchIsNoOp(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskRunning}

	p := New(fetcher, WithInterval(50*time.Millisecond))
	defer p.StopAll()

	if !p.Watch(context.Background(), "t1", Callbacks{}) {
		t.Fatal("first Watch should start")
	}
	if p.Watch(context.Background(), "t1", Callbacks{}) {
		t.Error("second Watch for same task id should be a no-op")
	}
}

func TestIndependentTasksPollConcurrently(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["a"] = []api.TaskStatus{api.TaskRunning, api.TaskCompleted}
	fetcher.sequence["b"] = []api.TaskStatus{api.TaskRunning, api.TaskRunning, api.TaskCompleted}

	p := New(fetcher, WithInterval(time.Millisecond))

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := p.Wait(context.Background(), id, nil); err != nil {
				t.Errorf("Wait(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if fetcher.callCount("a") != 2 || fetcher.callCount("b") != 3 {
		t.Errorf("unexpected poll counts: a=%d b=%d", fetcher.callCount("a"), fetcher.callCount("b"))
	}
}

func TestCancellationStopsPolling(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskRunning}

	p := New(fetcher, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	p.Watch(ctx, "t1", Callbacks{})

	time.Sleep(5 * time.Millisecond)
	cancel()
	p.StopAll()

	n := fetcher.callCount("t1")
	time.Sleep(10 * time.Millisecond)
	if fetcher.callCount("t1") != n {
		t.Error("polling continued after cancellation")
	}
	if p.Active("t1") {
		t.Error("cancelled task should not be active")
	}
}

func TestGivesUpAfterMaxPolls(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskRunning}

	p := New(fetcher, WithInterval(time.Millisecond), WithMaxPolls(5))

	var terminal int32
	p.Watch(context.Background(), "t1", Callbacks{
		OnCompleted: func(*api.Task) { atomic.AddInt32(&terminal, 1) },
		OnFailed:    func(*api.Task) { atomic.AddInt32(&terminal, 1) },
	})
	p.wg.Wait()

	if fetcher.callCount("t1") != 5 {
		t.Errorf("expected 5 polls, got %d", fetcher.callCount("t1"))
	}
	if atomic.LoadInt32(&terminal) != 0 {
		t.Error("giving up is silent; no terminal callback expected")
	}
}

func TestWaitReturnsErrorWhenPollsExhausted(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.sequence["t1"] = []api.TaskStatus{api.TaskRunning}

	p := New(fetcher, WithInterval(time.Millisecond), WithMaxPolls(3))

	_, err := p.Wait(context.Background(), "t1", nil)
	if err != ErrPollsExhausted {
		t.Fatalf("expected ErrPollsExhausted, got %v", err)
	}
	if fetcher.callCount("t1") != 3 {
		t.Errorf("expected 3 polls, got %d", fetcher.callCount("t1"))
	}
}
