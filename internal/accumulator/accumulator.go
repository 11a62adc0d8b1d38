// Package accumulator records events from one supplier into one table.
package accumulator

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
	"github.com/sanspareilsmyn/sensorlens/internal/metrics"
	"github.com/sanspareilsmyn/sensorlens/internal/scheduler"
	"github.com/sanspareilsmyn/sensorlens/internal/supplier"
	"github.com/sanspareilsmyn/sensorlens/internal/transform"
)

// Unbounded disables window eviction.
const Unbounded = 0

type Config struct {
	Name string
	// WindowSize caps the number of rows kept; the oldest rows are evicted first.
	WindowSize int
	// Delay is the minimum time between two polls of a pull supplier.
	Delay time.Duration
}

// Accumulator feeds events from a supplier through a transform chain into a table.
//
// Two locks are involved. lifecycle serializes start, stop and reconfiguration;
// mu guards the table, the chain state and the current recording session. Event
// delivery only ever takes mu, so stopping never waits on a producer holding it.
type Accumulator[T any] struct {
	name   string
	chain  *transform.Chain[T]
	sched  *scheduler.Scheduler
	logger *zap.Logger

	mu      sync.Mutex
	table   *dataframe.Table
	session uint64 // 0 while idle
	window  int

	lifecycle sync.Mutex
	supplier  supplier.Supplier
	task      *scheduler.Task
	listener  *sessionListener[T]
	delay     time.Duration
	recording bool
	closed    bool
	sessions  uint64
}

// New builds an idle accumulator. sched may be nil when only push suppliers
// will be used.
func New[T any](cfg Config, chain *transform.Chain[T], sched *scheduler.Scheduler, logger *zap.Logger) (*Accumulator[T], error) {
	if cfg.WindowSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, cfg.WindowSize)
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDelay, cfg.Delay)
	}
	if chain == nil {
		chain = transform.NewChain[T]()
	}
	name := cfg.Name
	if name == "" {
		name = dataframe.DefaultName
	}
	a := &Accumulator[T]{
		name:   name,
		chain:  chain,
		sched:  sched,
		logger: logger.With(zap.String("accumulator", name)),
		table:  dataframe.NewTable(name),
		window: cfg.WindowSize,
		delay:  cfg.Delay,
	}
	metrics.Recording.WithLabelValues(name).Set(0)
	a.logger.Debug("Accumulator created",
		zap.Int("window_size", cfg.WindowSize),
		zap.Duration("delay", cfg.Delay),
		zap.Int("steps", chain.Len()),
	)
	return a, nil
}

func (a *Accumulator[T]) Name() string { return a.name }

// SetSupplier swaps the event source. A recording accumulator is stopped, and
// restarted with the new supplier unless it is nil.
func (a *Accumulator[T]) SetSupplier(s supplier.Supplier) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if a.closed {
		return ErrClosed
	}

	wasRecording := a.recording
	a.stop()
	a.supplier = s
	if wasRecording && s != nil {
		return a.start()
	}
	return nil
}

// StartRecording initializes the supplier and begins feeding its events into the
// table. It is a no-op while already recording. On error the accumulator stays idle.
func (a *Accumulator[T]) StartRecording() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	return a.start()
}

// StopRecording cancels event delivery and disposes the supplier. Once it returns
// no further row is appended by the stopped session. It is a no-op when idle.
func (a *Accumulator[T]) StopRecording() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	a.stop()
}

func (a *Accumulator[T]) IsRecording() bool {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	return a.recording
}

// Close stops recording for good. Later starts fail with ErrClosed.
func (a *Accumulator[T]) Close() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if a.closed {
		return
	}
	a.stop()
	a.closed = true
	metrics.Recording.DeleteLabelValues(a.name)
	metrics.TableRows.DeleteLabelValues(a.name)
	a.logger.Debug("Accumulator closed")
}

// SetWindowSize changes the row bound. Rows above a smaller bound are evicted on
// the next append, not immediately.
func (a *Accumulator[T]) SetWindowSize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindowSize, n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = n
	return nil
}

func (a *Accumulator[T]) WindowSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window
}

// SetDelay changes the polling period. A running poll task is rescheduled in place.
func (a *Accumulator[T]) SetDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, d)
	}
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	a.delay = d
	if a.task != nil {
		a.task.Reset(d)
	}
	return nil
}

func (a *Accumulator[T]) Delay() time.Duration {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	return a.delay
}

// ClearDataFrame empties the table without touching the recording state.
func (a *Accumulator[T]) ClearDataFrame() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table.Clear()
	metrics.TableRows.WithLabelValues(a.name).Set(0)
}

// GetDataFrame returns a copy of the table taken at a single point in time.
func (a *Accumulator[T]) GetDataFrame() *dataframe.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.Clone()
}

// DrainDataFrame returns the table and replaces it with an empty one, atomically,
// so no row is lost or read twice between a snapshot and a clear.
func (a *Accumulator[T]) DrainDataFrame() *dataframe.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := a.table
	a.table = dataframe.NewTable(a.name)
	metrics.TableRows.WithLabelValues(a.name).Set(0)
	return t
}

func (a *Accumulator[T]) RowCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.RowCount()
}

// start must be called with lifecycle held.
func (a *Accumulator[T]) start() error {
	if a.closed {
		return ErrClosed
	}
	if a.recording {
		return nil
	}
	if a.supplier == nil {
		return ErrNoSupplier
	}

	pusher, isPusher := a.supplier.(supplier.Pusher[T])
	poller, isPoller := a.supplier.(supplier.Poller[T])
	switch {
	case !isPusher && !isPoller:
		return fmt.Errorf("%w: %T", ErrUnsupportedSupplier, a.supplier)
	case !isPusher && a.sched == nil:
		return ErrNoScheduler
	}

	if err := a.supplier.Initialize(); err != nil {
		return fmt.Errorf("%w: %w", ErrSupplierInit, err)
	}

	a.sessions++
	session := a.sessions
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	if isPusher {
		a.listener = &sessionListener[T]{acc: a, session: session}
		pusher.Register(a.listener)
	} else {
		task, err := a.sched.ScheduleAtFixedRate(a.name, a.delay, func() { a.poll(poller, session) })
		if err != nil {
			a.endSession()
			a.disposeSupplier()
			return fmt.Errorf("%w: %w", ErrScheduleFailed, err)
		}
		a.task = task
	}

	a.recording = true
	metrics.Recording.WithLabelValues(a.name).Set(1)
	a.logger.Info("Recording started",
		zap.Uint64("session", session),
		zap.Bool("push", isPusher),
		zap.Duration("delay", a.delay),
	)
	return nil
}

// stop must be called with lifecycle held.
func (a *Accumulator[T]) stop() {
	if !a.recording {
		return
	}
	a.endSession()

	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
	if a.listener != nil {
		if pusher, ok := a.supplier.(supplier.Pusher[T]); ok {
			pusher.Unregister(a.listener)
		}
		a.listener = nil
	}
	a.disposeSupplier()

	a.recording = false
	metrics.Recording.WithLabelValues(a.name).Set(0)
	a.logger.Info("Recording stopped", zap.Int("rows", a.RowCount()))
}

func (a *Accumulator[T]) endSession() {
	a.mu.Lock()
	a.session = 0
	a.mu.Unlock()
}

func (a *Accumulator[T]) disposeSupplier() {
	if err := a.supplier.Dispose(); err != nil {
		a.logger.Warn("Failed to dispose supplier", zap.Error(err))
	}
}

// poll runs on a scheduler worker once per tick.
func (a *Accumulator[T]) poll(p supplier.Poller[T], session uint64) {
	if !p.IsReady() {
		return
	}
	event, err := p.Produce()
	if err != nil {
		metrics.ProduceErrors.WithLabelValues(a.name).Inc()
		a.logger.Warn("Supplier failed to produce, skipping tick", zap.Error(err))
		return
	}
	a.accept(event, session)
}

// accept transforms event and appends the row if session is still current.
func (a *Accumulator[T]) accept(event T, session uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if session == 0 || session != a.session {
		return false
	}

	row := a.chain.Apply(event)
	if a.table.AppendRow(row) < 0 {
		return false
	}
	metrics.RowsAppended.WithLabelValues(a.name).Inc()

	if a.window > Unbounded {
		if excess := a.table.RowCount() - a.window; excess > 0 {
			evicted := a.table.DropFirst(excess)
			metrics.RowsEvicted.WithLabelValues(a.name).Add(float64(evicted))
		}
	}
	if err := a.table.Verify(); err != nil {
		a.logger.DPanic("Table invariant violated", zap.Error(err))
	}
	metrics.TableRows.WithLabelValues(a.name).Set(float64(a.table.RowCount()))
	return true
}

// sessionListener ties pushed events to the session they were registered for.
type sessionListener[T any] struct {
	acc     *Accumulator[T]
	session uint64
}

func (l *sessionListener[T]) OnEvent(event T) {
	l.acc.accept(event, l.session)
}
