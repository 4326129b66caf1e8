package pubsub

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrHandlerPoisoned reports that a mutating handler panicked during an
// earlier dispatch and has been quarantined: its state may be inconsistent,
// so it is skipped instead of invoked. Reachable through errors.Is on the
// error returned by Publish.
var ErrHandlerPoisoned = errors.New("pubsub: mutating handler poisoned by earlier panic")

// Fault records a single handler's abnormal termination during one Publish
// call.
type Fault struct {
	Subscription SubscriptionID
	Dispatch     uuid.UUID
	Recovered    any    // value recovered from the handler's panic, nil if Err is set
	Stack        []byte // goroutine stack captured at the recovery point
	Err          error  // set for non-panic conditions such as poisoning
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("subscription %d dispatch %s: %v", f.Subscription, f.Dispatch, f.Err)
	}
	return fmt.Sprintf("subscription %d dispatch %s: handler panic: %v", f.Subscription, f.Dispatch, f.Recovered)
}

func (f *Fault) Unwrap() error { return f.Err }

// DispatchError aggregates every fault captured during a single Publish
// call. Fault order follows completion order, which is not deterministic for
// concurrently running handlers.
type DispatchError struct {
	Faults []*Fault
}

func (e *DispatchError) Error() string {
	if len(e.Faults) == 1 {
		return fmt.Sprintf("pubsub: 1 handler failed: %v", e.Faults[0])
	}
	return fmt.Sprintf("pubsub: %d handlers failed, first: %v", len(e.Faults), e.Faults[0])
}

func (e *DispatchError) Unwrap() []error {
	errs := make([]error, len(e.Faults))
	for i, f := range e.Faults {
		errs[i] = f
	}
	return errs
}
