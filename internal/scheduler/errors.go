package scheduler

import "errors"

var (
	ErrClosed         = errors.New("scheduler is closed")
	ErrInvalidWorkers = errors.New("scheduler workers must not be negative")
)
