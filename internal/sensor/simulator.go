// Package sensor provides a simulated motion sensor that pushes readings the
// way a hardware sensor callback would.
package sensor

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/sensorlens/internal/supplier"
	"github.com/sanspareilsmyn/sensorlens/internal/transform"
)

const (
	DefaultRate = 20 * time.Millisecond
	gravity     = 9.80665
)

// Event is a single sensor reading.
type Event struct {
	// Timestamp is the reading time in nanoseconds on transform.SystemClockNanos.
	Timestamp int64
	Values    []float64
	Accuracy  int
}

// Accuracy levels reported with each reading.
const (
	AccuracyUnreliable = iota
	AccuracyLow
	AccuracyMedium
	AccuracyHigh
)

type Config struct {
	// Rate is the interval between two readings.
	Rate time.Duration
	// Axes is the number of values per reading, 3 when unset.
	Axes int
	Seed int64
}

// Simulator pushes accelerometer-like readings from its own goroutine while
// initialized. It can be initialized and disposed any number of times.
type Simulator struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.RWMutex
	listeners []supplier.Listener[Event]
	rng       *rand.Rand

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

var _ supplier.Pusher[Event] = (*Simulator)(nil)

func NewSimulator(cfg Config, logger *zap.Logger) *Simulator {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Axes <= 0 {
		cfg.Axes = 3
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.Named("sensor"),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Initialize starts emitting readings. It is a no-op while running.
func (s *Simulator) Initialize() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	s.logger.Debug("Sensor simulator started", zap.Duration("rate", s.cfg.Rate))
	return nil
}

// Dispose stops emitting and returns once no reading is being delivered.
func (s *Simulator) Dispose() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
	s.logger.Debug("Sensor simulator stopped")
	return nil
}

func (s *Simulator) Register(l supplier.Listener[Event]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listeners {
		if existing == l {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

func (s *Simulator) Unregister(l supplier.Listener[Event]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Simulator) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Rate)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.emit(s.read())
		}
	}
}

func (s *Simulator) emit(e Event) {
	s.mu.RLock()
	listeners := make([]supplier.Listener[Event], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(e)
	}
}

// read produces noisy readings around a device lying flat, with the occasional spike.
func (s *Simulator) read() Event {
	values := make([]float64, s.cfg.Axes)
	for i := range values {
		v := s.rng.NormFloat64() * 0.05
		if i == 2 {
			v += gravity
		}
		if s.rng.Float64() < 0.01 {
			v += s.rng.Float64() * 20
		}
		values[i] = v
	}
	accuracy := AccuracyHigh
	if s.rng.Float64() < 0.05 {
		accuracy = AccuracyMedium
	}
	return Event{
		Timestamp: transform.SystemClockNanos(),
		Values:    values,
		Accuracy:  accuracy,
	}
}
