package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/okian/dealdesk/internal/adapters/mq/worker"
	"github.com/okian/dealdesk/internal/adapters/repository"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/timeline"

	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
)

// Mutation names scope Idempotency-Keys so the same key may be reused for
// different operations.
const (
	opCreateContact = "contact.create"
	opUpdateContact = "contact.update"
	opDeleteContact = "contact.delete"
	opCreateDeal    = "deal.create"
	opUpdateDeal    = "deal.update"
	opDeleteDeal    = "deal.delete"
	opMoveDeal      = "deal.move"
	opResizeDeal    = "deal.resize"
	opStageDeal     = "deal.stage"
	opCreateRep     = "rep.create"
	opUpdateRep     = "rep.update"
	opDeleteRep     = "rep.delete"
)

// scoped returns "" for an empty key so applyOnce skips the cache.
func scoped(op string, id int, key string) string {
	if key == "" {
		return ""
	}
	return op + ":" + strconv.Itoa(id) + ":" + key
}

// errDetached marks an apply whose lane job outlived the caller. The lane
// settles the key, so applyOnce leaves it in flight.
var errDetached = errors.New("mutation detached from caller")

// applyOnce runs apply at most once per key. apply returns the record and
// its id. A repeated key is answered by replay with the id of the first
// result. A failed apply forgets the key so the client can retry, unless the
// failure is errDetached. An empty key disables the check.
func applyOnce[T any](
	ctx context.Context,
	s *Service,
	key string,
	apply func(context.Context) (T, int, error),
	replay func(context.Context, int) (T, error),
) (out T, duplicate bool, err error) {
	if key == "" {
		out, _, err = apply(ctx)
		return out, false, err
	}

	if s.deduper.SeenAndRecord(ctx, key) {
		id, ok := s.deduper.Lookup(ctx, key)
		if !ok {
			return out, true, ErrInFlight
		}
		metrics.RecordIdempotentReplay()
		s.logger.Debug(ctx, "replaying idempotent request", logger.String("key", key), logger.Int("id", id))
		out, err = replay(ctx, id)
		return out, true, err
	}

	out, id, err := apply(ctx)
	if errors.Is(err, errDetached) {
		return out, false, err
	}
	s.settleKey(ctx, key, id, err)
	return out, false, err
}

// settleKey completes key on success and forgets it on failure.
func (s *Service) settleKey(ctx context.Context, key string, id int, err error) {
	if key == "" {
		return
	}
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return
	}
	s.deduper.Complete(ctx, key, id)
}

// laneTicket tracks one deal mutation on its lane. If the caller stops
// waiting before the job ends, the lane settles the idempotency key, so a
// retry gets ErrInFlight instead of applying the mutation a second time.
type laneTicket struct {
	s   *Service
	key string
	id  int

	mu        sync.Mutex
	finished  bool
	err       error
	abandoned bool
}

// settle is the lane's worker.SettleFunc.
func (t *laneTicket) settle(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished, t.err = true, err
	if t.abandoned {
		t.s.settleKey(context.Background(), t.key, t.id, err)
	}
}

// wait turns the error of Do into the apply result. A caller-side context
// error on an unfinished job becomes errDetached.
func (t *laneTicket) wait(ctx context.Context, doErr error) error {
	if doErr == nil || ctx.Err() == nil || !errors.Is(doErr, ctx.Err()) {
		return doErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return t.err
	}
	t.abandoned = true
	return errors.Join(doErr, errDetached)
}

// errorType labels err for the errors_by_component metric.
func errorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrNotAvailable):
		return "unavailable"
	case errors.Is(err, worker.ErrBackpressure):
		return "backpressure"
	case errors.Is(err, timeline.ErrInvalidSpan):
		return "invalid_span"
	case errors.Is(err, model.ErrInvalidRecord), errors.Is(err, model.ErrInvalidStage), errors.Is(err, model.ErrInvalidStatus):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// nothing replays operations that return no record.
func nothing(context.Context, int) (struct{}, error) { return struct{}{}, nil }
