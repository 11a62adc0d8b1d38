package registry

import "errors"

var (
	ErrDestroyed   = errors.New("registry is destroyed")
	ErrNilRecorder = errors.New("recorder must not be nil")
)
