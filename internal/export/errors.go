package export

import "errors"

var (
	ErrNoDirectory   = errors.New("export directory is not configured")
	ErrArchiveFailed = errors.New("failed to write table archive")
)
