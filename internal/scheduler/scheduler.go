// Package scheduler runs repeating tasks on a bounded number of workers.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/metrics"
)

const (
	DefaultWorkers     = 4
	DefaultMinInterval = time.Millisecond
)

type Config struct {
	// Workers bounds how many task runs may execute at the same time.
	Workers int
	// MinInterval is the shortest period a task runs at. Tasks scheduled with a
	// shorter period, including zero, run at MinInterval.
	MinInterval time.Duration
}

// Scheduler executes tasks at a fixed rate. Each task has its own timer
// goroutine; runs acquire one of Workers slots before executing.
type Scheduler struct {
	cfg    Config
	logger *zap.Logger
	slots  chan struct{}

	mu     sync.Mutex
	tasks  map[*Task]struct{}
	closed bool
	wg     sync.WaitGroup
}

func New(cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	logger.Debug("Scheduler created",
		zap.Int("workers", cfg.Workers),
		zap.Duration("min_interval", cfg.MinInterval),
	)
	return &Scheduler{
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, cfg.Workers),
		tasks:  make(map[*Task]struct{}),
	}, nil
}

// ScheduleAtFixedRate runs fn now and then every period until the returned task is
// cancelled. A run that panics is logged and the task keeps going.
func (s *Scheduler) ScheduleAtFixedRate(name string, period time.Duration, fn func()) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	t := &Task{
		name:    name,
		fn:      fn,
		period:  s.clamp(period),
		s:       s,
		reset:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.tasks[t] = struct{}{}
	s.wg.Add(1)
	metrics.ScheduledTasks.Inc()
	go t.loop()

	s.logger.Debug("Task scheduled", zap.String("task", name), zap.Duration("period", t.period))
	return t, nil
}

// Close cancels every task and waits for them to finish. Scheduling afterwards
// fails with ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tasks := make([]*Task, 0, len(s.tasks))
	for t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	s.wg.Wait()
	s.logger.Debug("Scheduler closed", zap.Int("cancelled_tasks", len(tasks)))
}

// Len returns the number of live tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) clamp(period time.Duration) time.Duration {
	if period < s.cfg.MinInterval {
		return s.cfg.MinInterval
	}
	return period
}

func (s *Scheduler) forget(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
	metrics.ScheduledTasks.Dec()
	s.wg.Done()
}
