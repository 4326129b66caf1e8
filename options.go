package pubsub

// Option configures a Publisher at construction time.
type Option func(*Publisher)

// WithMaxParallelism caps the number of read-only handler invocations running
// at once during a single Publish call. Values below 1 are ignored and the
// default (GOMAXPROCS) applies.
func WithMaxParallelism(n int) Option {
	return func(p *Publisher) { p.maxParallel = n }
}

// WithPoisonRecovery opts out of quarantining mutating handlers after a
// panic: the poison mark is cleared and the handler is invoked again on the
// next matching dispatch. Only appropriate for handlers whose state survives
// a partial update.
func WithPoisonRecovery() Option {
	return func(p *Publisher) { p.recoverPoisoned = true }
}
