package timeline

import "errors"

// ErrInvalidSpan is returned when a resize would end a deal before it starts.
var ErrInvalidSpan = errors.New("invalid span")
