package watcher

import (
	"sync"
	"testing"
	"time"
)

// mockWatcher is a Watcher driven by the test.
type mockWatcher struct {
	events chan Event
	errors chan error

	mu     sync.Mutex
	closed bool
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{
		events: make(chan Event, 100),
		errors: make(chan error, 10),
	}
}

func (m *mockWatcher) WatchRecursive(string) error  { return nil }
func (m *mockWatcher) Events() <-chan Event         { return m.events }
func (m *mockWatcher) Errors() <-chan error         { return m.errors }

func (m *mockWatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
		close(m.errors)
	}
	return nil
}

func (m *mockWatcher) emit(path string, op Op) {
	m.events <- Event{Path: path, Op: op, Timestamp: time.Now()}
}

func receive(t *testing.T, b *Batcher, within time.Duration) Batch {
	t.Helper()
	select {
	case batch, ok := <-b.Batches():
		if !ok {
			t.Fatal("batch channel closed")
		}
		return batch
	case <-time.After(within):
		t.Fatal("timed out waiting for a batch")
	}
	return Batch{}
}

func TestBatcher_CoalescesBurst(t *testing.T) {
	mock := newMockWatcher()
	b := NewBatcher(mock, 30*time.Millisecond, time.Second)
	defer b.Close()

	mock.emit("/ws/src/a.cpp", OpCreate)
	mock.emit("/ws/src/a.cpp", OpWrite)
	mock.emit("/ws/src/b.cpp", OpWrite)

	batch := receive(t, b, 2*time.Second)
	if batch.Len() != 2 {
		t.Fatalf("batch has %d paths, want 2: %v", batch.Len(), batch.Paths())
	}
	if op := batch.Changes["/ws/src/a.cpp"]; !op.Has(OpCreate) || !op.Has(OpWrite) {
		t.Errorf("ops for a.cpp = %b, want CREATE|WRITE", op)
	}

	select {
	case extra := <-b.Batches():
		t.Errorf("unexpected second batch: %v", extra.Paths())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBatcher_MaxWaitBoundsSteadyStream(t *testing.T) {
	mock := newMockWatcher()
	b := NewBatcher(mock, 50*time.Millisecond, 120*time.Millisecond)
	defer b.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				mock.emit("/ws/src/log.txt", OpWrite)
			}
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	start := time.Now()
	receive(t, b, 2*time.Second)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("first batch took %s despite max wait", elapsed)
	}
}

func TestBatcher_MergesWhileConsumerBusy(t *testing.T) {
	mock := newMockWatcher()
	b := NewBatcher(mock, 10*time.Millisecond, 50*time.Millisecond)
	defer b.Close()

	mock.emit("/ws/src/one", OpWrite)
	time.Sleep(60 * time.Millisecond) // batch is ready but nobody reads it
	mock.emit("/ws/src/two", OpWrite)
	time.Sleep(20 * time.Millisecond)

	batch := receive(t, b, 2*time.Second)
	if batch.Len() != 2 {
		t.Errorf("batch = %v, want both paths", batch.Paths())
	}
}

func TestBatcher_ClosesWithInner(t *testing.T) {
	mock := newMockWatcher()
	b := NewBatcher(mock, 10*time.Millisecond, 20*time.Millisecond)

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-b.Batches(); ok {
		t.Error("Batches() should be closed after Close")
	}
	// Closing twice is harmless.
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestBatch_Paths(t *testing.T) {
	b := newBatch(time.Now())
	b.add(Event{Path: "/b", Op: OpWrite}, time.Now())
	b.add(Event{Path: "/a", Op: OpCreate}, time.Now())

	got := b.Paths()
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Errorf("Paths() = %v", got)
	}
}
