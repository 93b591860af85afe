package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/dealdesk/internal/adapters/mq/worker"
	"github.com/okian/dealdesk/internal/adapters/repository"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/timeline"
)

// ErrBadRequest marks input the handler could not bind or parse. Lane
// backpressure arrives as worker.ErrBackpressure.
var ErrBadRequest = errors.New("bad request")

// Error codes written in the "code" field of error bodies.
const (
	CodeBadRequest   = "bad_request"
	CodeInvalidSpan  = "invalid_span"
	CodeNotFound     = "not_found"
	CodeConflict     = "in_flight"
	CodeBackpressure = "backpressure"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal"
)

// Error ties a failure to the handler that saw it and an optional kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind reports a failure of kind with no underlying error.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps err onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, timeline.ErrInvalidSpan):
		return http.StatusUnprocessableEntity, CodeInvalidSpan
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, model.ErrInvalidStage),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, repository.ErrInvalidFilter):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, worker.ErrBackpressure):
		return http.StatusTooManyRequests, CodeBackpressure
	case errors.Is(err, service.ErrInFlight):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, repository.ErrNotAvailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, worker.ErrStopped),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
