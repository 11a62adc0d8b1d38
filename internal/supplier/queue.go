package supplier

import (
	"sync"
)

// Queue is a Pusher fed by external callers. Push delivers the event to every
// registered listener on the calling goroutine. Events pushed while the queue is
// not initialized are rejected with ErrNotActive.
type Queue[T any] struct {
	mu        sync.RWMutex
	active    bool
	listeners []Listener[T]
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Initialize() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = true
	return nil
}

func (q *Queue[T]) Dispose() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = false
	return nil
}

func (q *Queue[T]) Register(l Listener[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.listeners {
		if existing == l {
			return
		}
	}
	q.listeners = append(q.listeners, l)
}

func (q *Queue[T]) Unregister(l Listener[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, existing := range q.listeners {
		if existing == l {
			q.listeners = append(q.listeners[:i], q.listeners[i+1:]...)
			return
		}
	}
}

// Push hands event to the registered listeners.
func (q *Queue[T]) Push(event T) error {
	q.mu.RLock()
	if !q.active {
		q.mu.RUnlock()
		return ErrNotActive
	}
	listeners := make([]Listener[T], len(q.listeners))
	copy(listeners, q.listeners)
	q.mu.RUnlock()

	for _, l := range listeners {
		l.OnEvent(event)
	}
	return nil
}

// Listeners returns the number of registered listeners.
func (q *Queue[T]) Listeners() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.listeners)
}
