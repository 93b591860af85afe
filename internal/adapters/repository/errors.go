package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrNotAvailable  = errors.New("store not available")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrInvalidFilter = errors.New("invalid filter")
)
