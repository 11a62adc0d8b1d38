package accumulator

import "errors"

var (
	ErrNoSupplier          = errors.New("accumulator has no supplier")
	ErrUnsupportedSupplier = errors.New("supplier neither polls nor pushes events of the accumulator's type")
	ErrNoScheduler         = errors.New("polling supplier requires a scheduler")
	ErrClosed              = errors.New("accumulator is closed")
	ErrInvalidWindowSize   = errors.New("window size must not be negative")
	ErrInvalidDelay        = errors.New("delay must not be negative")
	ErrSupplierInit        = errors.New("failed to initialize supplier")
	ErrScheduleFailed      = errors.New("failed to schedule polling task")
)
