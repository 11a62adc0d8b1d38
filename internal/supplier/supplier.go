// Package supplier defines the event sources an accumulator records from.
//
// A source is either pulled (Poller: the accumulator asks IsReady and Produce on
// its schedule) or pushes (Pusher: the source calls registered listeners from a
// goroutine of its own choosing). Both are initialized before recording starts and
// disposed after it stops, possibly many times over the life of one source.
package supplier

// Supplier is the lifecycle shared by all sources.
type Supplier interface {
	Initialize() error
	Dispose() error
}

// Poller is a pull-based source.
type Poller[T any] interface {
	Supplier
	IsReady() bool
	Produce() (T, error)
}

// Listener receives pushed events.
type Listener[T any] interface {
	OnEvent(event T)
}

// Pusher is a push-based source.
type Pusher[T any] interface {
	Supplier
	Register(l Listener[T])
	Unregister(l Listener[T])
}

// ListenerFunc adapts a function to Listener. Function values are not comparable,
// so register a *ListenerFunc when it must be unregistered later.
type ListenerFunc[T any] func(event T)

func (f *ListenerFunc[T]) OnEvent(event T) { (*f)(event) }
