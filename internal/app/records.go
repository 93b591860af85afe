package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/dealdesk/internal/adapters/repository"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ContactQuery narrows ListContacts. Q is a free-text search; Status and Rep
// accept "all" or "" for no filter.
type ContactQuery struct {
	Q      string
	Status string
	Rep    string
}

func (q ContactQuery) filtered() bool {
	return (q.Status != "" && q.Status != repository.FilterAll) ||
		(q.Rep != "" && q.Rep != repository.FilterAll)
}

// ListContacts returns contacts matching q. A search combined with a filter
// returns the search results that also pass the filter, in search order.
func (s *Service) ListContacts(ctx context.Context, q ContactQuery) ([]model.Contact, error) {
	const op = "service.ListContacts"
	contacts := s.store.Contacts()
	term := strings.TrimSpace(q.Q)
	filter := repository.ContactFilter{Status: q.Status, Rep: q.Rep}

	switch {
	case term == "" && !q.filtered():
		out, err := contacts.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	case term == "":
		out, err := contacts.Filter(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	case !q.filtered():
		out, err := contacts.Search(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	var found, kept []model.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		found, err = contacts.Search(gctx, term)
		return err
	})
	g.Go(func() (err error) {
		kept, err = contacts.Filter(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make(map[int]struct{}, len(kept))
	for _, c := range kept {
		ids[c.ID] = struct{}{}
	}
	out := make([]model.Contact, 0, len(found))
	for _, c := range found {
		if _, ok := ids[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetContact returns one contact.
func (s *Service) GetContact(ctx context.Context, id int) (model.Contact, error) {
	c, err := s.store.Contacts().Get(ctx, id)
	if err != nil {
		return model.Contact{}, fmt.Errorf("service.GetContact: %w", err)
	}
	return c, nil
}

// CreateContact stores a new contact with status "new" unless given.
func (s *Service) CreateContact(ctx context.Context, key string, c model.Contact) (model.Contact, bool, error) {
	out, dup, err := applyOnce(ctx, s, scoped(opCreateContact, 0, key),
		func(ctx context.Context) (model.Contact, int, error) {
			created, err := s.store.Contacts().Create(ctx, c.WithDefaults())
			return created, created.ID, err
		},
		s.store.Contacts().Get,
	)
	if err != nil {
		return out, dup, fmt.Errorf("service.CreateContact: %w", err)
	}
	if !dup {
		s.logger.Info(ctx, "contact created", logger.Int("id", out.ID))
	}
	return out, dup, nil
}

// UpdateContact merges p into contact id.
func (s *Service) UpdateContact(ctx context.Context, key string, id int, p model.ContactPatch) (model.Contact, bool, error) {
	out, dup, err := applyOnce(ctx, s, scoped(opUpdateContact, id, key),
		func(ctx context.Context) (model.Contact, int, error) {
			updated, err := s.store.Contacts().Update(ctx, id, p)
			return updated, id, err
		},
		s.store.Contacts().Get,
	)
	if err != nil {
		return out, dup, fmt.Errorf("service.UpdateContact: %w", err)
	}
	return out, dup, nil
}

// DeleteContact removes contact id. Deals keep their contact id and show
// up as "Unknown" on the timeline.
func (s *Service) DeleteContact(ctx context.Context, key string, id int) (bool, error) {
	_, dup, err := applyOnce(ctx, s, scoped(opDeleteContact, id, key),
		func(ctx context.Context) (struct{}, int, error) {
			return struct{}{}, id, s.store.Contacts().Delete(ctx, id)
		},
		nothing,
	)
	if err != nil {
		return dup, fmt.Errorf("service.DeleteContact: %w", err)
	}
	return dup, nil
}

// ListReps returns every sales rep in id order.
func (s *Service) ListReps(ctx context.Context) ([]model.SalesRep, error) {
	reps, err := s.store.Reps().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListReps: %w", err)
	}
	return reps, nil
}

// GetRep returns one sales rep.
func (s *Service) GetRep(ctx context.Context, id int) (model.SalesRep, error) {
	r, err := s.store.Reps().Get(ctx, id)
	if err != nil {
		return model.SalesRep{}, fmt.Errorf("service.GetRep: %w", err)
	}
	return r, nil
}

// CreateRep adds a sales rep. Its counters start at zero whatever r holds.
func (s *Service) CreateRep(ctx context.Context, key string, r model.SalesRep) (model.SalesRep, bool, error) {
	out, dup, err := applyOnce(ctx, s, scoped(opCreateRep, 0, key),
		func(ctx context.Context) (model.SalesRep, int, error) {
			created, err := s.store.Reps().Create(ctx, r)
			return created, created.ID, err
		},
		s.store.Reps().Get,
	)
	if err != nil {
		return out, dup, fmt.Errorf("service.CreateRep: %w", err)
	}
	if !dup {
		s.logger.Info(ctx, "sales rep created", logger.Int("id", out.ID), logger.String("name", out.Name))
	}
	return out, dup, nil
}

// UpdateRep merges p into rep id. This is how counters change.
func (s *Service) UpdateRep(ctx context.Context, key string, id int, p model.SalesRepPatch) (model.SalesRep, bool, error) {
	out, dup, err := applyOnce(ctx, s, scoped(opUpdateRep, id, key),
		func(ctx context.Context) (model.SalesRep, int, error) {
			updated, err := s.store.Reps().Update(ctx, id, p)
			return updated, id, err
		},
		s.store.Reps().Get,
	)
	if err != nil {
		return out, dup, fmt.Errorf("service.UpdateRep: %w", err)
	}
	return out, dup, nil
}

// DeleteRep removes rep id.
func (s *Service) DeleteRep(ctx context.Context, key string, id int) (bool, error) {
	_, dup, err := applyOnce(ctx, s, scoped(opDeleteRep, id, key),
		func(ctx context.Context) (struct{}, int, error) {
			return struct{}{}, id, s.store.Reps().Delete(ctx, id)
		},
		nothing,
	)
	if err != nil {
		return dup, fmt.Errorf("service.DeleteRep: %w", err)
	}
	return dup, nil
}
