package watcher

import (
	"sync"
	"time"
)

// Batcher coalesces the events of a Watcher into batches. A batch is
// emitted once no event arrived for the debounce delay, or once maxWait
// elapsed since its first event. While the consumer is busy, new events
// are merged into the batch waiting to be delivered.
type Batcher struct {
	inner    Watcher
	debounce time.Duration
	maxWait  time.Duration
	now      func() time.Time

	batches chan Batch
	errors  chan error

	closeOnce sync.Once
	closeCh   chan struct{}
	closedWg  sync.WaitGroup
}

// NewBatcher creates a batcher over inner and starts it.
func NewBatcher(inner Watcher, debounce, maxWait time.Duration) *Batcher {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	if maxWait < debounce {
		maxWait = debounce
	}

	b := &Batcher{
		inner:    inner,
		debounce: debounce,
		maxWait:  maxWait,
		now:      time.Now,
		batches:  make(chan Batch),
		errors:   make(chan error, 16),
		closeCh:  make(chan struct{}),
	}

	b.closedWg.Add(1)
	go b.processLoop()

	return b
}

// Batches returns the batch channel. It is closed when the batcher stops.
func (b *Batcher) Batches() <-chan Batch {
	return b.batches
}

// Errors returns errors forwarded from the inner watcher.
func (b *Batcher) Errors() <-chan error {
	return b.errors
}

// Close stops the batcher and the inner watcher. A pending batch is
// discarded.
func (b *Batcher) Close() error {
	b.closeOnce.Do(func() {
		close(b.closeCh)
	})
	b.closedWg.Wait()
	return b.inner.Close()
}

func (b *Batcher) processLoop() {
	defer b.closedWg.Done()
	defer close(b.batches)
	defer close(b.errors)

	var (
		pending *Batch
		ready   bool
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timerC = nil
	}
	defer stopTimer()

	events := b.inner.Events()
	errs := b.inner.Errors()

	for {
		var out chan<- Batch
		var next Batch
		if ready {
			out = b.batches
			next = *pending
		}

		select {
		case <-b.closeCh:
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			now := b.now()
			if pending == nil {
				pending = newBatch(now)
			}
			pending.add(ev, now)
			if !ready {
				stopTimer()
				timer = time.NewTimer(b.deadline(pending).Sub(now))
				timerC = timer.C
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			select {
			case b.errors <- err:
			default:
			}

		case <-timerC:
			timerC = nil
			ready = true

		case out <- next:
			pending = nil
			ready = false
		}
	}
}

// deadline is the earlier of the quiet-period end and the max-wait end.
func (b *Batcher) deadline(batch *Batch) time.Time {
	quiet := batch.Last.Add(b.debounce)
	limit := batch.First.Add(b.maxWait)
	if limit.Before(quiet) {
		return limit
	}
	return quiet
}
