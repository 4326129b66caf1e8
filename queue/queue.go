// Package queue provides a bounded asynchronous façade over a Publisher.
// Producers that cannot tolerate dispatch latency enqueue events without
// blocking; a fixed worker pool drains the channel and publishes each event,
// logging per-dispatch failures. Dispatch semantics are unchanged: every
// drained event still goes through a single blocking Publish call.
package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	pubsub "event_framework"
	"event_framework/metrics"
)

// Publisher is the sink the queue drains into. *pubsub.Publisher satisfies it.
type Publisher interface {
	Publish(event any) error
}

// Stats exposes current queue metrics.
type Stats struct {
	Length      int    `json:"length"`
	Capacity    int    `json:"capacity"`
	WorkerCount int    `json:"worker_count"`
	Dispatched  uint64 `json:"dispatched"`
	Failed      uint64 `json:"failed"`
}

// Queue is a bounded event queue with a fixed worker pool.
type Queue struct {
	pub         Publisher
	events      chan any
	workerCount int
	started     bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
	dispatched  uint64
	failed      uint64
}

// New creates a Queue with the provided capacity and worker count.
func New(pub Publisher, capacity, workerCount int) *Queue {
	return &Queue{
		pub:         pub,
		events:      make(chan any, capacity),
		workerCount: workerCount,
	}
}

// Start launches the worker pool.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue attempts to queue an event without blocking. Returns false if the
// queue is full or not started.
func (q *Queue) Enqueue(event any) bool {
	return q.tryEnqueue(event, true)
}

// EnqueueWithRetry attempts to queue an event with a bounded retry window.
// Returns (enqueued, droppedFull).
func (q *Queue) EnqueueWithRetry(ctx context.Context, event any, window, interval time.Duration) (bool, bool) {
	deadline := time.Now().Add(window)
	if q.tryEnqueue(event, false) {
		return true, false
	}
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, false
		case <-time.After(interval):
			if q.tryEnqueue(event, false) {
				return true, false
			}
		}
	}
	metrics.IncDropped()
	return false, true
}

func (q *Queue) tryEnqueue(event any, logDrop bool) bool {
	// The read lock is held across the send attempt so Stop cannot close
	// the channel underneath it.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started {
		if logDrop {
			log.Printf("enqueue called before queue started for %T", event)
		}
		return false
	}
	select {
	case q.events <- event:
		metrics.IncEnqueued()
		return true
	default:
		if logDrop {
			log.Printf("event queue full, dropping %T", event)
			metrics.IncDropped()
		}
		return false
	}
}

// Stop stops accepting new events and waits for workers to drain until the
// context is done.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	// Flip started first so a late Enqueue is rejected rather than sending
	// on a closed channel.
	q.started = false
	close(q.events)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Stats returns current queue metrics.
func (q *Queue) Stats() Stats {
	return Stats{
		Length:      len(q.events),
		Capacity:    cap(q.events),
		WorkerCount: q.workerCount,
		Dispatched:  atomic.LoadUint64(&q.dispatched),
		Failed:      atomic.LoadUint64(&q.failed),
	}
}

// Healthy reports whether the queue has been started.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-q.events:
			if !ok {
				return
			}
			q.dispatch(event)
		}
	}
}

func (q *Queue) dispatch(event any) {
	start := time.Now()
	err := q.pub.Publish(event)
	atomic.AddUint64(&q.dispatched, 1)
	if err == nil {
		return
	}
	atomic.AddUint64(&q.failed, 1)
	metrics.IncDispatchFailed()
	var derr *pubsub.DispatchError
	if errors.As(err, &derr) {
		log.Printf("dispatch %T duration_ms=%d faults=%d first=%v",
			event, time.Since(start).Milliseconds(), len(derr.Faults), derr.Faults[0])
		return
	}
	log.Printf("dispatch %T failed: %v", event, err)
}
