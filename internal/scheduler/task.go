package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/metrics"
)

// Task is a repeating job owned by a Scheduler.
type Task struct {
	name string
	fn   func()
	s    *Scheduler

	mu     sync.Mutex
	period time.Duration
	reset  chan struct{}

	cancelOnce sync.Once
	done       chan struct{}
	stopped    chan struct{}
}

func (t *Task) Name() string { return t.name }

func (t *Task) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Reset changes the period. The task goroutine applies it between runs, so a
// run is never skipped or doubled by the change; the next run happens one new
// period after the reset is applied.
func (t *Task) Reset(period time.Duration) {
	t.mu.Lock()
	t.period = t.s.clamp(period)
	t.mu.Unlock()
	select {
	case t.reset <- struct{}{}:
	default:
	}
}

// Cancel stops the task. It waits for a run in progress to return, so it must not
// be called from inside the task function. Calling Cancel again is a no-op.
func (t *Task) Cancel() {
	t.cancelOnce.Do(func() { close(t.done) })
	<-t.stopped
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.stopped }

func (t *Task) loop() {
	defer close(t.stopped)
	defer t.s.forget(t)

	if !t.run() {
		return
	}
	ticker := time.NewTicker(t.Period())
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-t.reset:
			ticker.Reset(t.Period())
		case <-ticker.C:
			if !t.run() {
				return
			}
		}
	}
}

// run executes fn in a worker slot. It reports false if the task was cancelled
// while waiting for a slot.
func (t *Task) run() (ran bool) {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.s.slots <- struct{}{}:
	case <-t.done:
		return false
	}
	defer func() { <-t.s.slots }()

	defer func() {
		if r := recover(); r != nil {
			metrics.TaskPanics.WithLabelValues(t.name).Inc()
			t.s.logger.Error("Task panicked, continuing",
				zap.String("task", t.name),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"),
			)
		}
	}()
	ran = true
	t.fn()
	return ran
}
