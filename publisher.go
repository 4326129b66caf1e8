package pubsub

import (
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
)

// SubscriptionID identifies one registered handler. Ids start at 1, are
// strictly increasing across both handler kinds, and are never reused, so a
// stale id passed to Unsubscribe is always a safe no-op.
type SubscriptionID uint64

type subscription struct {
	id        SubscriptionID
	shared    Handler
	exclusive *exclusiveEntry
}

// exclusiveEntry guards one mutating handler. mu is held for the full
// duration of each invocation; poisoned is guarded by mu.
type exclusiveEntry struct {
	mu       sync.Mutex
	poisoned bool
	handler  MutHandler
}

// Publisher owns the subscription registry and the dispatch engine. The zero
// value is not usable; construct with New. All methods are safe for
// concurrent use.
type Publisher struct {
	mu     sync.RWMutex
	nextID SubscriptionID
	subs   map[SubscriptionID]*subscription

	maxParallel     int
	recoverPoisoned bool

	published atomic.Uint64
	delivered atomic.Uint64
	faulted   atomic.Uint64
}

// New creates an empty Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{subs: make(map[SubscriptionID]*subscription)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) add(sub *subscription) SubscriptionID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	sub.id = p.nextID
	p.subs[sub.id] = sub
	return sub.id
}

// Subscribe registers a read-only handler and returns the id needed to
// remove it. The handler may be invoked concurrently with itself.
func (p *Publisher) Subscribe(h Handler) SubscriptionID {
	return p.add(&subscription{shared: h})
}

// SubscribeMut registers a mutating handler. Its invocations are serialized
// against each other and against every concurrent Publish call.
func (p *Publisher) SubscribeMut(h MutHandler) SubscriptionID {
	return p.add(&subscription{exclusive: &exclusiveEntry{handler: h}})
}

// SubscribeFunc registers a bare function as a read-only handler for events
// of type T. A free function because Go methods cannot introduce type
// parameters.
func SubscribeFunc[T any](p *Publisher, fn func(T)) SubscriptionID {
	return p.Subscribe(HandlerFunc(fn))
}

// Unsubscribe removes the handler registered under id. Unknown ids are
// ignored. A Publish already in flight may still deliver to the removed
// handler; a Publish started afterwards never will.
func (p *Publisher) Unsubscribe(id SubscriptionID) {
	p.mu.Lock()
	delete(p.subs, id)
	p.mu.Unlock()
}

// UnsubscribeMut removes a mutating handler. Both handler kinds share one id
// space, so this is identical to Unsubscribe; it exists so call sites read
// symmetrically with SubscribeMut.
func (p *Publisher) UnsubscribeMut(id SubscriptionID) {
	p.Unsubscribe(id)
}

// Publish delivers event to every registered handler whose declared type
// exactly matches the event's concrete type, and blocks until all of them
// have finished. Read-only handlers fan out onto goroutines, at most
// parallelism() in flight at once; mutating handlers run inline on the
// calling goroutine under their per-subscription lock.
//
// The event value is shared by every concurrently running handler and must
// be safe for that: immutable after publish, or internally synchronized.
//
// Publish never fails because a handler failed. Handler panics are captured
// per invocation and aggregated; the returned error is either nil or a
// *DispatchError listing every Fault.
func (p *Publisher) Publish(event any) error {
	env := newEnvelope(event)
	p.published.Add(1)

	p.mu.RLock()
	snapshot := make([]*subscription, 0, len(p.subs))
	for _, sub := range p.subs {
		snapshot = append(snapshot, sub)
	}
	p.mu.RUnlock()

	// Map iteration order is random; sort by id so the inline mutating
	// sweep is stable across calls.
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].id < snapshot[j].id })

	limit := p.parallelism()
	inflight := make([]chan *Fault, 0, limit)
	var faults []*Fault

	collect := func(done chan *Fault) {
		if f := <-done; f != nil {
			faults = append(faults, f)
		}
	}

	for _, sub := range snapshot {
		if sub.exclusive != nil {
			if f := p.runExclusive(env, sub); f != nil {
				faults = append(faults, f)
			}
			continue
		}
		if len(inflight) == limit {
			// Budget saturated: join the oldest invocation before
			// scheduling the next.
			collect(inflight[0])
			inflight = inflight[1:]
		}
		done := make(chan *Fault, 1)
		go func(sub *subscription) {
			done <- p.runShared(env, sub)
		}(sub)
		inflight = append(inflight, done)
	}
	for _, done := range inflight {
		collect(done)
	}

	if len(faults) == 0 {
		return nil
	}
	p.faulted.Add(uint64(len(faults)))
	return &DispatchError{Faults: faults}
}

// parallelism returns the concurrency budget for read-only handlers.
func (p *Publisher) parallelism() int {
	n := p.maxParallel
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (p *Publisher) runShared(env *envelope, sub *subscription) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &Fault{
				Subscription: sub.id,
				Dispatch:     env.dispatchID,
				Recovered:    r,
				Stack:        debug.Stack(),
			}
		}
	}()
	if sub.shared.dynHandle(env) {
		p.delivered.Add(1)
	}
	return nil
}

func (p *Publisher) runExclusive(env *envelope, sub *subscription) *Fault {
	entry := sub.exclusive
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.poisoned {
		if !p.recoverPoisoned {
			return &Fault{
				Subscription: sub.id,
				Dispatch:     env.dispatchID,
				Err:          ErrHandlerPoisoned,
			}
		}
		entry.poisoned = false
	}

	var fault *Fault
	func() {
		defer func() {
			if r := recover(); r != nil {
				entry.poisoned = true
				fault = &Fault{
					Subscription: sub.id,
					Dispatch:     env.dispatchID,
					Recovered:    r,
					Stack:        debug.Stack(),
				}
			}
		}()
		if entry.handler.dynHandleMut(env) {
			p.delivered.Add(1)
		}
	}()
	return fault
}

// Stats is a point-in-time snapshot of dispatch counters.
type Stats struct {
	Subscriptions int    `json:"subscriptions"`
	Published     uint64 `json:"published"`
	Delivered     uint64 `json:"delivered"`
	Faults        uint64 `json:"faults"`
}

// Stats returns current dispatch counters. Delivered counts matched handler
// invocations that returned normally; panicking invocations count as Faults.
func (p *Publisher) Stats() Stats {
	p.mu.RLock()
	n := len(p.subs)
	p.mu.RUnlock()
	return Stats{
		Subscriptions: n,
		Published:     p.published.Load(),
		Delivered:     p.delivered.Load(),
		Faults:        p.faulted.Load(),
	}
}
