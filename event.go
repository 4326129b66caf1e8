package pubsub

import "github.com/google/uuid"

// envelope wraps exactly one published value. A single envelope is created
// per Publish call and shared by pointer across every handler invocation;
// only the matched value is copied, inside the trampoline.
type envelope struct {
	// dispatchID correlates fault records and log lines produced by one
	// Publish call.
	dispatchID uuid.UUID
	data       any
}

func newEnvelope(event any) *envelope {
	return &envelope{dispatchID: uuid.New(), data: event}
}
