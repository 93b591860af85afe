package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
)

// table is a map of records keyed by id.
type table[T any] struct {
	entity string
	mu     sync.RWMutex
	rows   map[int]T
}

func newTable[T any](entity string) *table[T] {
	return &table[T]{entity: entity, rows: make(map[int]T)}
}

// list returns the records ordered by id.
func (t *table[T]) list(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(t.rows[id]) {
			out = append(out, t.rows[id])
		}
	}
	return out
}

func (t *table[T]) get(id int) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %d: %w", t.entity, id, ErrNotFound)
	}
	return row, nil
}

// insert stores the record built by mk for the next id.
func (t *table[T]) insert(mk func(id int) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := 1
	for id := range t.rows {
		if id >= next {
			next = id + 1
		}
	}
	row, err := mk(next)
	if err != nil {
		return row, err
	}
	t.rows[next] = row
	metrics.UpdateStoreRecords(t.entity, len(t.rows))
	return row, nil
}

func (t *table[T]) update(id int, fn func(T) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %d: %w", t.entity, id, ErrNotFound)
	}
	row, err := fn(row)
	if err != nil {
		return row, err
	}
	t.rows[id] = row
	return row, nil
}

func (t *table[T]) remove(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %d: %w", t.entity, id, ErrNotFound)
	}
	delete(t.rows, id)
	metrics.UpdateStoreRecords(t.entity, len(t.rows))
	return nil
}

func (t *table[T]) put(id int, row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = row
	metrics.UpdateStoreRecords(t.entity, len(t.rows))
}

func (t *table[T]) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Memory is the in-process backend. Records live in maps guarded per table;
// an optional random delay stands in for a remote store.
type Memory struct {
	opts        options
	unavailable atomic.Bool

	deals    *table[model.Deal]
	contacts *table[model.Contact]
	reps     *table[model.SalesRep]
}

// NewMemory constructs an empty in-memory backend.
func NewMemory(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory{
		opts:     o,
		deals:    newTable[model.Deal](EntityDeal),
		contacts: newTable[model.Contact](EntityContact),
		reps:     newTable[model.SalesRep](EntityRep),
	}
}

// SetAvailable toggles a simulated outage. While unavailable every call
// fails with ErrNotAvailable.
func (m *Memory) SetAvailable(ok bool) { m.unavailable.Store(!ok) }

func (m *Memory) Deals() DealStore       { return memoryDeals{m} }
func (m *Memory) Contacts() ContactStore { return memoryContacts{m} }
func (m *Memory) Reps() SalesRepStore    { return memoryReps{m} }

func (m *Memory) Empty(ctx context.Context) (bool, error) {
	if err := m.wait(ctx); err != nil {
		return false, err
	}
	return m.deals.size()+m.contacts.size()+m.reps.size() == 0, nil
}

func (m *Memory) Import(ctx context.Context, ds Dataset) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	for _, c := range ds.Contacts {
		m.contacts.put(c.ID, c.WithDefaults())
	}
	for _, d := range ds.Deals {
		m.deals.put(d.ID, d.WithDefaults())
	}
	for _, r := range ds.Reps {
		m.reps.put(r.ID, r)
	}
	m.opts.log.Info(ctx, "dataset imported",
		logger.Int("contacts", len(ds.Contacts)),
		logger.Int("deals", len(ds.Deals)),
		logger.Int("reps", len(ds.Reps)))
	return nil
}

func (m *Memory) Close() error { return nil }

// wait applies the simulated latency and outage.
func (m *Memory) wait(ctx context.Context) error {
	if m.unavailable.Load() {
		return ErrNotAvailable
	}
	d := m.opts.minLatency
	if span := m.opts.maxLatency - m.opts.minLatency; span > 0 {
		d += rand.N(span + 1)
	}
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotAvailable, err)
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotAvailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}

type memoryDeals struct{ m *Memory }

func (s memoryDeals) List(ctx context.Context) (_ []model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "list", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return s.m.deals.list(nil), nil
}

func (s memoryDeals) Get(ctx context.Context, id int) (d model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "get", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return d, err
	}
	return s.m.deals.get(id)
}

func (s memoryDeals) Create(ctx context.Context, in model.Deal) (d model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "create", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return d, err
	}
	in = in.WithDefaults()
	if err = in.Validate(); err != nil {
		return d, err
	}
	return s.m.deals.insert(func(id int) (model.Deal, error) {
		now := s.m.opts.now()
		in.ID, in.CreatedAt, in.UpdatedAt = id, now, now
		return in, nil
	})
}

func (s memoryDeals) Update(ctx context.Context, id int, p model.DealPatch) (d model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "update", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return d, err
	}
	return s.m.deals.update(id, func(cur model.Deal) (model.Deal, error) {
		next := p.Apply(cur)
		if err := next.Validate(); err != nil {
			return cur, err
		}
		next.UpdatedAt = s.m.opts.now()
		return next, nil
	})
}

func (s memoryDeals) UpdateStage(ctx context.Context, id int, stage model.Stage) (model.Deal, error) {
	return s.Update(ctx, id, model.DealPatch{Stage: &stage})
}

func (s memoryDeals) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityDeal, "delete", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return err
	}
	return s.m.deals.remove(id)
}

func (s memoryDeals) ListByStage(ctx context.Context, stage model.Stage) (_ []model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "list_by_stage", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return s.m.deals.list(func(d model.Deal) bool { return d.Stage == stage }), nil
}

func (s memoryDeals) ListByYear(ctx context.Context, year int) (_ []model.Deal, err error) {
	defer func(start time.Time) { observe(EntityDeal, "list_by_year", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return s.m.deals.list(func(d model.Deal) bool { return d.Year == year }), nil
}

type memoryContacts struct{ m *Memory }

func (s memoryContacts) List(ctx context.Context) (_ []model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "list", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return cloneContacts(s.m.contacts.list(nil)), nil
}

func (s memoryContacts) Get(ctx context.Context, id int) (c model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "get", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return c, err
	}
	c, err = s.m.contacts.get(id)
	return cloneContact(c), err
}

func (s memoryContacts) Create(ctx context.Context, in model.Contact) (c model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "create", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return c, err
	}
	in = in.WithDefaults()
	if err = in.Validate(); err != nil {
		return c, err
	}
	c, err = s.m.contacts.insert(func(id int) (model.Contact, error) {
		in.ID, in.CreatedAt, in.LastContacted = id, s.m.opts.now(), nil
		return in, nil
	})
	return cloneContact(c), err
}

func (s memoryContacts) Update(ctx context.Context, id int, p model.ContactPatch) (c model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "update", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return c, err
	}
	c, err = s.m.contacts.update(id, func(cur model.Contact) (model.Contact, error) {
		next := p.Apply(cur)
		if err := next.Validate(); err != nil {
			return cur, err
		}
		return next, nil
	})
	return cloneContact(c), err
}

func (s memoryContacts) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityContact, "delete", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return err
	}
	return s.m.contacts.remove(id)
}

func (s memoryContacts) Search(ctx context.Context, term string) (_ []model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "search", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return cloneContacts(s.m.contacts.list(func(c model.Contact) bool { return matchSearch(c, term) })), nil
}

func (s memoryContacts) Filter(ctx context.Context, f ContactFilter) (_ []model.Contact, err error) {
	defer func(start time.Time) { observe(EntityContact, "filter", start, err) }(time.Now())
	cf, err := compileFilter(f)
	if err != nil {
		return nil, err
	}
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return cloneContacts(s.m.contacts.list(cf.match)), nil
}

// cloneContact detaches the tag slice and contact time from the stored row.
// cloneContact copies the mutable parts of c. Tags are never nil, matching
// what the gorm backend decodes.
func cloneContact(c model.Contact) model.Contact {
	c.Tags = append([]string{}, c.Tags...)
	if c.LastContacted != nil {
		t := *c.LastContacted
		c.LastContacted = &t
	}
	return c
}

func cloneContacts(cs []model.Contact) []model.Contact {
	for i := range cs {
		cs[i] = cloneContact(cs[i])
	}
	return cs
}

type memoryReps struct{ m *Memory }

func (s memoryReps) List(ctx context.Context) (_ []model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "list", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return nil, err
	}
	return s.m.reps.list(nil), nil
}

func (s memoryReps) Get(ctx context.Context, id int) (r model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "get", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return r, err
	}
	return s.m.reps.get(id)
}

func (s memoryReps) Create(ctx context.Context, in model.SalesRep) (r model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "create", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return r, err
	}
	in = newSalesRep(in)
	if err = in.Validate(); err != nil {
		return r, err
	}
	return s.m.reps.insert(func(id int) (model.SalesRep, error) {
		in.ID = id
		return in, nil
	})
}

func (s memoryReps) Update(ctx context.Context, id int, p model.SalesRepPatch) (r model.SalesRep, err error) {
	defer func(start time.Time) { observe(EntityRep, "update", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return r, err
	}
	return s.m.reps.update(id, func(cur model.SalesRep) (model.SalesRep, error) {
		next := p.Apply(cur)
		if err := next.Validate(); err != nil {
			return cur, err
		}
		return next, nil
	})
}

func (s memoryReps) Delete(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { observe(EntityRep, "delete", start, err) }(time.Now())
	if err = s.m.wait(ctx); err != nil {
		return err
	}
	return s.m.reps.remove(id)
}
