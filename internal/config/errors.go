package config

import (
	"errors"
)

// Sentinel error kinds for config loading; match with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	ErrUnknownDriver = errors.New("unknown store driver")
)
