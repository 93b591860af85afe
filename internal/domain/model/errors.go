package model

import "errors"

// Sentinel errors for record validation and enumeration parsing.
var (
	ErrInvalidStage  = errors.New("invalid stage")
	ErrInvalidStatus = errors.New("invalid contact status")
	ErrInvalidRecord = errors.New("invalid record")
)
