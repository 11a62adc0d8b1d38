package supplier

import "errors"

var (
	ErrNoProducer    = errors.New("supplier has no produce function")
	ErrNotReady      = errors.New("supplier has no event ready")
	ErrChannelClosed = errors.New("supplier channel closed")
	ErrNotActive     = errors.New("supplier is not initialized")
)
