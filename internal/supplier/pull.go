package supplier

// Func is a Poller built from closures. Nil closures default to: always ready,
// no-op lifecycle.
type Func[T any] struct {
	ReadyFn      func() bool
	ProduceFn    func() (T, error)
	InitializeFn func() error
	DisposeFn    func() error
}

func NewFunc[T any](produce func() (T, error)) *Func[T] {
	return &Func[T]{ProduceFn: produce}
}

func (f *Func[T]) Initialize() error {
	if f.InitializeFn == nil {
		return nil
	}
	return f.InitializeFn()
}

func (f *Func[T]) Dispose() error {
	if f.DisposeFn == nil {
		return nil
	}
	return f.DisposeFn()
}

func (f *Func[T]) IsReady() bool {
	if f.ReadyFn == nil {
		return true
	}
	return f.ReadyFn()
}

func (f *Func[T]) Produce() (T, error) {
	if f.ProduceFn == nil {
		var zero T
		return zero, ErrNoProducer
	}
	return f.ProduceFn()
}

// Channel is a Poller reading from a Go channel. It is ready while the channel
// holds buffered items; Produce never blocks.
type Channel[T any] struct {
	ch <-chan T
}

func NewChannel[T any](ch <-chan T) *Channel[T] {
	return &Channel[T]{ch: ch}
}

func (c *Channel[T]) Initialize() error { return nil }

func (c *Channel[T]) Dispose() error { return nil }

func (c *Channel[T]) IsReady() bool { return len(c.ch) > 0 }

func (c *Channel[T]) Produce() (T, error) {
	select {
	case v, ok := <-c.ch:
		if !ok {
			var zero T
			return zero, ErrChannelClosed
		}
		return v, nil
	default:
		var zero T
		return zero, ErrNotReady
	}
}
