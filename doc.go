// Package pubsub is an in-process publish/subscribe dispatcher. Producers
// broadcast values ("events") through a Publisher without knowing who is
// listening; handlers register interest in a single concrete event type and
// are invoked only when a published value's runtime type exactly matches it.
// There is no topic hierarchy and no type covariance: a handler bound to type
// A never sees values of any other type, related or not.
//
// Handlers come in two shapes. Read-only handlers (registered with Subscribe,
// built from a function via HandlerFunc or from a Handle[T] implementation
// via HandlerFor) may be invoked concurrently, bounded by the publisher's
// parallelism budget. Mutating handlers (registered with SubscribeMut, built
// from a HandleMut[T] implementation via MutHandlerFor) are invoked one at a
// time under a per-subscription lock, so their internal state never sees
// concurrent updates.
//
// A value passed to Publish must be safe to hand to several goroutines at
// once: either immutable after publish or internally synchronized. Event
// types must be concrete types; matched values are passed to handlers by
// ordinary assignment, so value-typed events give each handler its own copy.
//
// Publish blocks until every matching handler has returned or panicked.
// A panicking handler never aborts the dispatch: each panic is captured as a
// Fault and the full set is returned as a *DispatchError. Delivery order
// between handlers is unspecified and must not be relied upon.
package pubsub
