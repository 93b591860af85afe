package service

import (
	"context"
	"fmt"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/timeline"
	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
)

// Timeline gesture labels.
const (
	GestureMove   = "move"
	GestureResize = "resize"
)

// DealQuery narrows ListDeals. Zero fields match everything.
type DealQuery struct {
	Stage string
	Year  int
}

// ListDeals returns deals, optionally by stage and year.
func (s *Service) ListDeals(ctx context.Context, q DealQuery) ([]model.Deal, error) {
	const op = "service.ListDeals"
	deals := s.store.Deals()

	var (
		out []model.Deal
		err error
	)
	switch {
	case q.Stage != "":
		stage, perr := model.ParseStage(q.Stage)
		if perr != nil {
			return nil, fmt.Errorf("%s: %w", op, perr)
		}
		out, err = deals.ListByStage(ctx, stage)
		if err == nil && q.Year != 0 {
			out = timeline.SelectYear(out, q.Year)
		}
	case q.Year != 0:
		out, err = deals.ListByYear(ctx, q.Year)
	default:
		out, err = deals.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// GetDeal returns one deal.
func (s *Service) GetDeal(ctx context.Context, id int) (model.Deal, error) {
	d, err := s.store.Deals().Get(ctx, id)
	if err != nil {
		return model.Deal{}, fmt.Errorf("service.GetDeal: %w", err)
	}
	return d, nil
}

// CreateDeal stores a new deal with the default stage and span filled in.
func (s *Service) CreateDeal(ctx context.Context, key string, d model.Deal) (model.Deal, bool, error) {
	const op = "service.CreateDeal"
	out, dup, err := applyOnce(ctx, s, scoped(opCreateDeal, 0, key),
		func(ctx context.Context) (model.Deal, int, error) {
			created, err := s.store.Deals().Create(ctx, d.WithDefaults())
			return created, created.ID, err
		},
		s.store.Deals().Get,
	)
	if err != nil {
		return out, dup, fmt.Errorf("%s: %w", op, err)
	}
	if !dup {
		s.logger.Info(ctx, "deal created", logger.Int("id", out.ID), logger.String("stage", out.Stage.String()))
	}
	return out, dup, nil
}

// UpdateDeal merges p into deal id.
func (s *Service) UpdateDeal(ctx context.Context, key string, id int, p model.DealPatch) (model.Deal, bool, error) {
	return s.mutateDeal(ctx, "service.UpdateDeal", opUpdateDeal, key, id, func(ctx context.Context) (model.Deal, error) {
		return s.store.Deals().Update(ctx, id, p)
	})
}

// ChangeStage moves deal id to another pipeline column. Any stage may follow
// any other.
func (s *Service) ChangeStage(ctx context.Context, key string, id int, stage string) (model.Deal, bool, error) {
	const op = "service.ChangeStage"
	target, err := model.ParseStage(stage)
	if err != nil {
		return model.Deal{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return s.mutateDeal(ctx, op, opStageDeal, key, id, func(ctx context.Context) (model.Deal, error) {
		return s.store.Deals().UpdateStage(ctx, id, target)
	})
}

// MoveDeal shifts deal id to start at startMonth, keeping its duration
// unless the span would run past December.
func (s *Service) MoveDeal(ctx context.Context, key string, id, startMonth int) (model.Deal, bool, error) {
	const op = "service.MoveDeal"
	if startMonth < model.FirstMonth || startMonth > model.LastMonth {
		metrics.RecordTimelineRejectedSpan()
		return model.Deal{}, false, fmt.Errorf("%s: start month %d: %w", op, startMonth, timeline.ErrInvalidSpan)
	}
	return s.mutateDeal(ctx, op, opMoveDeal, key, id, func(ctx context.Context) (model.Deal, error) {
		cur, err := s.store.Deals().Get(ctx, id)
		if err != nil {
			return cur, err
		}
		span := timeline.ApplyMove(cur, startMonth)
		if span.Months() < timeline.SpanOf(cur).Months() {
			metrics.RecordTimelineClampedMove()
			s.logger.Debug(ctx, "move clamped at december",
				logger.Int("id", id), logger.Int("start", span.Start), logger.Int("end", span.End))
		}
		out, err := s.persistSpan(ctx, id, span)
		if err == nil {
			metrics.RecordTimelineGesture(GestureMove)
		}
		return out, err
	})
}

// ResizeDeal sets the end month of deal id. An end before the start fails
// with timeline.ErrInvalidSpan and leaves the deal unchanged.
func (s *Service) ResizeDeal(ctx context.Context, key string, id, endMonth int) (model.Deal, bool, error) {
	const op = "service.ResizeDeal"
	if endMonth > model.LastMonth {
		metrics.RecordTimelineRejectedSpan()
		return model.Deal{}, false, fmt.Errorf("%s: end month %d: %w", op, endMonth, timeline.ErrInvalidSpan)
	}
	return s.mutateDeal(ctx, op, opResizeDeal, key, id, func(ctx context.Context) (model.Deal, error) {
		cur, err := s.store.Deals().Get(ctx, id)
		if err != nil {
			return cur, err
		}
		span, err := timeline.ApplyResize(cur, endMonth)
		if err != nil {
			metrics.RecordTimelineRejectedSpan()
			return cur, err
		}
		out, err := s.persistSpan(ctx, id, span)
		if err == nil {
			metrics.RecordTimelineGesture(GestureResize)
		}
		return out, err
	})
}

// DeleteDeal removes deal id.
func (s *Service) DeleteDeal(ctx context.Context, key string, id int) (bool, error) {
	const op = "service.DeleteDeal"
	pool, err := s.dispatcher()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	dkey := scoped(opDeleteDeal, id, key)
	_, dup, err := applyOnce(ctx, s, dkey,
		func(ctx context.Context) (struct{}, int, error) {
			t := &laneTicket{s: s, key: dkey, id: id}
			err := t.wait(ctx, pool.DoSettled(ctx, id, func(ctx context.Context) error {
				return s.store.Deals().Delete(ctx, id)
			}, t.settle))
			return struct{}{}, id, err
		},
		nothing,
	)
	if err != nil {
		return dup, fmt.Errorf("%s: %w", op, err)
	}
	return dup, nil
}

func (s *Service) persistSpan(ctx context.Context, id int, span timeline.Span) (model.Deal, error) {
	return s.store.Deals().Update(ctx, id, model.DealPatch{
		StartMonth: &span.Start,
		EndMonth:   &span.End,
	})
}

// mutateDeal runs fn on the lane of deal id, so mutations of one deal apply
// one at a time in arrival order.
func (s *Service) mutateDeal(
	ctx context.Context,
	op, mutation, key string,
	id int,
	fn func(context.Context) (model.Deal, error),
) (model.Deal, bool, error) {
	pool, err := s.dispatcher()
	if err != nil {
		return model.Deal{}, false, fmt.Errorf("%s: %w", op, err)
	}

	dkey := scoped(mutation, id, key)
	out, dup, err := applyOnce(ctx, s, dkey,
		func(ctx context.Context) (model.Deal, int, error) {
			// res is only read once the job is known to have finished.
			var res model.Deal
			t := &laneTicket{s: s, key: dkey, id: id}
			err := t.wait(ctx, pool.DoSettled(ctx, id, func(ctx context.Context) error {
				d, ferr := fn(ctx)
				if ferr == nil {
					res = d
				}
				return ferr
			}, t.settle))
			if err != nil {
				return model.Deal{}, id, err
			}
			return res, id, nil
		},
		s.store.Deals().Get,
	)
	if err != nil {
		metrics.RecordErrorByComponent("service", errorType(err))
		return model.Deal{}, dup, fmt.Errorf("%s: %w", op, err)
	}
	return out, dup, nil
}
