package transform

import (
	"time"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// Clock returns a reading in the clock's own unit.
type Clock func() int64

var processStart = time.Now()

// EpochMillis reads wall-clock time in milliseconds since the Unix epoch.
func EpochMillis() int64 { return time.Now().UnixMilli() }

// SystemClockMillis reads a monotonic clock in milliseconds, relative to process start.
func SystemClockMillis() int64 { return time.Since(processStart).Milliseconds() }

// SystemClockNanos is SystemClockMillis in nanoseconds. It is the reference for
// event timestamps produced by sensor sources.
func SystemClockNanos() int64 { return time.Since(processStart).Nanoseconds() }

// Column name prefixes used by the built-in timestamp steps.
const (
	PrefixEpoch       = "epoch"
	PrefixSystemClock = "systemclock"
	PrefixSensor      = "sensor"
)

// TimestampColumns returns the absolute and delta column names for a prefix.
func TimestampColumns(prefix string) (timestamp, delta string) {
	return prefix + "_timestamp", prefix + "_delta_timestamp"
}

// Timestamp writes "<prefix>_timestamp" and "<prefix>_delta_timestamp" for every
// event. The delta is measured from the previous event seen by this step, or from
// the reference reading taken when the step was built for the first event.
type Timestamp[T any] struct {
	read              func(T) int64
	column, deltaName string
	previous          int64
}

// NewTimestamp builds a timestamp step reading the event with read. reference is
// read once, now, to seed the first delta.
func NewTimestamp[T any](prefix string, read func(T) int64, reference Clock) *Timestamp[T] {
	column, delta := TimestampColumns(prefix)
	return &Timestamp[T]{
		read:      read,
		column:    column,
		deltaName: delta,
		previous:  reference(),
	}
}

func (s *Timestamp[T]) Apply(event T, row *dataframe.Row) {
	current := s.read(event)
	delta := current - s.previous
	s.previous += delta
	row.Set(s.column, dataframe.Int(current))
	row.Set(s.deltaName, dataframe.Int(delta))
}

// ClockTimestamp stamps rows with a clock that ignores the event.
func ClockTimestamp[T any](prefix string, clock Clock) *Timestamp[T] {
	return NewTimestamp[T](prefix, func(T) int64 { return clock() }, clock)
}

// EpochTimestamp stamps rows with wall-clock milliseconds.
func EpochTimestamp[T any]() *Timestamp[T] {
	return ClockTimestamp[T](PrefixEpoch, EpochMillis)
}

// SystemClockTimestamp stamps rows with monotonic milliseconds.
func SystemClockTimestamp[T any]() *Timestamp[T] {
	return ClockTimestamp[T](PrefixSystemClock, SystemClockMillis)
}

// EventTimestamp stamps rows with a timestamp carried by the event itself, such as
// a hardware sensor reading time. The first delta is taken against reference.
func EventTimestamp[T any](read func(T) int64, reference Clock) *Timestamp[T] {
	return NewTimestamp[T](PrefixSensor, read, reference)
}
