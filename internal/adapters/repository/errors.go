package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrUnsupportedDriver = errors.New("unsupported source driver")
	ErrInvalidRecord     = errors.New("invalid score record")
	ErrClosed            = errors.New("store is closed")
	ErrMissingSetting    = errors.New("missing source setting")
)
