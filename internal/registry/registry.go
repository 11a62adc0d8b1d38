// Package registry keeps a keyed set of accumulators whose recording follows an
// application-level lifecycle signal.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// Recorder is the part of an accumulator the registry drives. Accumulators of
// any event type satisfy it.
type Recorder interface {
	Name() string
	StartRecording() error
	StopRecording()
	ClearDataFrame()
	GetDataFrame() *dataframe.Table
	DrainDataFrame() *dataframe.Table
	Close()
}

// State is the lifecycle signal last delivered to a registry.
type State int

const (
	Inactive State = iota
	Active
	Destroyed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Registry maps keys to recorders and keeps their recording in step with the
// registry state: Active records, Inactive stops, Destroyed stops and closes.
// Keys iterate in insertion order.
type Registry[K comparable] struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	state   State
	keys    []K
	entries map[K]Recorder
}

// New returns an inactive, empty registry.
func New[K comparable](logger *zap.Logger) *Registry[K] {
	return &Registry[K]{
		logger:  logger.Named("registry").Sugar(),
		entries: make(map[K]Recorder),
	}
}

func (r *Registry[K]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Put stores rec under key and returns the recorder it replaced, if any. The
// replaced recorder is stopped and closed before rec is attached. rec catches up
// with the registry state: it starts recording right away while the registry is
// active. A start failure is returned but rec stays registered.
func (r *Registry[K]) Put(key K, rec Recorder) (Recorder, error) {
	if rec == nil {
		return nil, ErrNilRecorder
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Destroyed {
		return nil, ErrDestroyed
	}

	prev, replaced := r.entries[key]
	if replaced {
		r.detach(key, prev)
	}
	r.entries[key] = rec
	r.keys = append(r.keys, key)

	if r.state == Active {
		if err := rec.StartRecording(); err != nil {
			return prev, fmt.Errorf("start %q: %w", rec.Name(), err)
		}
	}
	r.logger.Debugw("Recorder attached", "key", key, "name", rec.Name(), "replaced", replaced)
	return prev, nil
}

func (r *Registry[K]) Get(key K) (Recorder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entries[key]
	return rec, ok
}

// Remove stops and closes the recorder under key before dropping it. It
// returns the removed recorder, whose table stays readable.
func (r *Registry[K]) Remove(key K) (Recorder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entries[key]
	if ok {
		r.detach(key, rec)
	}
	return rec, ok
}

// Keys returns the keys in insertion order.
func (r *Registry[K]) Keys() []K {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]K, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear empties every table, then removes every key.
func (r *Registry[K]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		r.entries[key].ClearDataFrame()
	}
	for _, key := range append([]K(nil), r.keys...) {
		r.detach(key, r.entries[key])
	}
}

// GetDataFrames returns a snapshot of every table in key order.
func (r *Registry[K]) GetDataFrames() []*dataframe.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*dataframe.Table, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.entries[key].GetDataFrame())
	}
	return out
}

// DrainDataFrames takes every table in key order, leaving the recorders with
// empty ones.
func (r *Registry[K]) DrainDataFrames() []*dataframe.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*dataframe.Table, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.entries[key].DrainDataFrame())
	}
	return out
}

// Start delivers the active signal: every recorder starts recording. Recorders
// that fail to start are reported together; the others keep recording.
func (r *Registry[K]) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Destroyed {
		return ErrDestroyed
	}
	r.state = Active

	var errs error
	for _, key := range r.keys {
		rec := r.entries[key]
		if err := rec.StartRecording(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("start %q: %w", rec.Name(), err))
		}
	}
	r.logger.Infow("Registry active", "recorders", len(r.keys), "failed", len(multierr.Errors(errs)))
	return errs
}

// Stop delivers the inactive signal: every recorder stops recording. Tables are
// kept.
func (r *Registry[K]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Active {
		return
	}
	r.state = Inactive
	for _, key := range r.keys {
		r.entries[key].StopRecording()
	}
	r.logger.Infow("Registry inactive", "recorders", len(r.keys))
}

// Destroy delivers the terminal signal: every recorder is stopped and closed.
// Tables stay readable so they can be flushed; later Puts fail with ErrDestroyed.
func (r *Registry[K]) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Destroyed {
		return
	}
	r.state = Destroyed
	for _, key := range r.keys {
		rec := r.entries[key]
		rec.StopRecording()
		rec.Close()
	}
	r.logger.Infow("Registry destroyed", "recorders", len(r.keys))
}

// detach must be called with mu held.
func (r *Registry[K]) detach(key K, rec Recorder) {
	rec.StopRecording()
	rec.Close()
	delete(r.entries, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	r.logger.Debugw("Recorder detached", "key", key, "name", rec.Name())
}
