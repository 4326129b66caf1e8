package pubsub

// Handle is implemented by subscriber objects that observe events of type T
// without mutating their own state. Implementations may be invoked from
// several goroutines at once, for the same or different events, and must not
// require exclusive access to interior state.
type Handle[T any] interface {
	Handle(event T)
}

// HandleMut is implemented by subscriber objects that update internal state
// when invoked. The publisher guarantees no two invocations of the same
// registered instance run concurrently.
type HandleMut[T any] interface {
	HandleMut(event T)
}

// Handler is a type-erased read-only handler accepted by Subscribe. Values
// are built with HandlerFunc or HandlerFor; the interface is sealed so the
// type-matching step cannot be bypassed.
type Handler interface {
	dynHandle(env *envelope) bool
}

// MutHandler is the type-erased counterpart of Handler for mutating
// handlers, accepted by SubscribeMut and built with MutHandlerFor.
type MutHandler interface {
	dynHandleMut(env *envelope) bool
}

type handlerFunc[T any] struct {
	fn func(T)
}

// dynHandle invokes the bound function when the envelope holds a T.
// A mismatch is not an error; it is how events are filtered.
func (h handlerFunc[T]) dynHandle(env *envelope) bool {
	v, ok := env.data.(T)
	if !ok {
		return false
	}
	h.fn(v)
	return true
}

// HandlerFunc adapts a bare function into a read-only handler for events of
// type T.
func HandlerFunc[T any](fn func(T)) Handler {
	return handlerFunc[T]{fn: fn}
}

// HandlerFor adapts a Handle[T] implementation into a read-only handler.
func HandlerFor[T any](h Handle[T]) Handler {
	return handlerFunc[T]{fn: h.Handle}
}

type mutHandler[T any] struct {
	h HandleMut[T]
}

func (m mutHandler[T]) dynHandleMut(env *envelope) bool {
	v, ok := env.data.(T)
	if !ok {
		return false
	}
	m.h.HandleMut(v)
	return true
}

// MutHandlerFor adapts a HandleMut[T] implementation into a mutating handler.
func MutHandlerFor[T any](h HandleMut[T]) MutHandler {
	return mutHandler[T]{h: h}
}
