// Package metrics holds process-wide counters for the framework components
// in front of the dispatcher. The dispatcher's own counters live on the
// Publisher; these cover the async queue and the filesystem source.
package metrics

import "sync/atomic"

var (
	eventsEnqueued   int64
	eventsDropped    int64
	dispatchesFailed int64
	filesSeen        int64
)

func IncEnqueued()       { atomic.AddInt64(&eventsEnqueued, 1) }
func IncDropped()        { atomic.AddInt64(&eventsDropped, 1) }
func IncDispatchFailed() { atomic.AddInt64(&dispatchesFailed, 1) }
func IncFileSeen()       { atomic.AddInt64(&filesSeen, 1) }

func Snapshot() map[string]int64 {
	return map[string]int64{
		"events_enqueued":   atomic.LoadInt64(&eventsEnqueued),
		"events_dropped":    atomic.LoadInt64(&eventsDropped),
		"dispatches_failed": atomic.LoadInt64(&dispatchesFailed),
		"files_seen":        atomic.LoadInt64(&filesSeen),
	}
}
