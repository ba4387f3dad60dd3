package manager

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/walletkit/wallet"
)

// queues runs one worker per wallet kind. Each worker drains an unbounded
// FIFO, so pushing never blocks the adapter that reports the event.
type queues struct {
	apply func(wallet.ProviderEvent)

	mu      sync.Mutex
	byKind  map[wallet.Kind]*kindQueue
	stopped bool
	wg      sync.WaitGroup
	done    chan struct{}
}

type kindQueue struct {
	mu     sync.Mutex
	items  []wallet.ProviderEvent
	busy   bool
	signal chan struct{}
}

func newQueues(apply func(wallet.ProviderEvent)) *queues {
	return &queues{
		apply:  apply,
		byKind: make(map[wallet.Kind]*kindQueue),
		done:   make(chan struct{}),
	}
}

func (q *queues) push(ev wallet.ProviderEvent) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	kq, ok := q.byKind[ev.Kind]
	if !ok {
		kq = &kindQueue{signal: make(chan struct{}, 1)}
		q.byKind[ev.Kind] = kq
		q.wg.Add(1)
		go q.run(kq)
	}
	// Queued before q.mu is released so idle never misses an accepted event.
	kq.mu.Lock()
	kq.items = append(kq.items, ev)
	kq.mu.Unlock()
	q.mu.Unlock()

	select {
	case kq.signal <- struct{}{}:
	default:
	}
}

func (q *queues) run(kq *kindQueue) {
	defer q.wg.Done()
	for {
		select {
		case <-kq.signal:
			q.drain(kq)
		case <-q.done:
			q.drain(kq)
			return
		}
	}
}

func (q *queues) drain(kq *kindQueue) {
	for {
		kq.mu.Lock()
		if len(kq.items) == 0 {
			kq.busy = false
			kq.mu.Unlock()
			return
		}
		ev := kq.items[0]
		kq.items = kq.items[1:]
		kq.busy = true
		kq.mu.Unlock()

		q.apply(ev)
	}
}

// idle reports whether every queue is empty and no event is being applied.
func (q *queues) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, kq := range q.byKind {
		kq.mu.Lock()
		pending := len(kq.items) > 0 || kq.busy
		kq.mu.Unlock()
		if pending {
			return false
		}
	}
	return true
}

// stop applies whatever is queued and ends the workers.
func (q *queues) stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.done)
	q.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every queued provider event has been applied.
func (m *Manager) Flush(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for !m.queues.idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
