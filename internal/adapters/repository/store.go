// Package repository defines the CRM record stores and their backends.
package repository

import (
	"context"

	"github.com/okian/dealdesk/internal/domain/model"
)

// Entity labels used in logs and metrics.
const (
	EntityDeal    = "deal"
	EntityContact = "contact"
	EntityRep     = "rep"
)

// FilterAll disables a ContactFilter field, as does the empty string.
const FilterAll = "all"

// DealStore persists deals. Create assigns an id one greater than the
// largest existing id and stamps both timestamps; every update refreshes
// UpdatedAt.
type DealStore interface {
	List(ctx context.Context) ([]model.Deal, error)
	Get(ctx context.Context, id int) (model.Deal, error)
	Create(ctx context.Context, d model.Deal) (model.Deal, error)
	Update(ctx context.Context, id int, p model.DealPatch) (model.Deal, error)
	Delete(ctx context.Context, id int) error

	// UpdateStage is Update with only the stage set.
	UpdateStage(ctx context.Context, id int, stage model.Stage) (model.Deal, error)
	ListByStage(ctx context.Context, stage model.Stage) ([]model.Deal, error)
	ListByYear(ctx context.Context, year int) ([]model.Deal, error)
}

// ContactFilter narrows a contact listing. Empty or "all" fields match
// everything.
type ContactFilter struct {
	Status string
	Rep    string
}

// ContactStore persists contacts. Create stamps CreatedAt and clears
// LastContacted.
type ContactStore interface {
	List(ctx context.Context) ([]model.Contact, error)
	Get(ctx context.Context, id int) (model.Contact, error)
	Create(ctx context.Context, c model.Contact) (model.Contact, error)
	Update(ctx context.Context, id int, p model.ContactPatch) (model.Contact, error)
	Delete(ctx context.Context, id int) error

	// Search matches term case-insensitively against name, email and company.
	Search(ctx context.Context, term string) ([]model.Contact, error)
	Filter(ctx context.Context, f ContactFilter) ([]model.Contact, error)
}

// SalesRepStore persists sales reps. Create starts every counter at zero.
type SalesRepStore interface {
	List(ctx context.Context) ([]model.SalesRep, error)
	Get(ctx context.Context, id int) (model.SalesRep, error)
	Create(ctx context.Context, r model.SalesRep) (model.SalesRep, error)
	Update(ctx context.Context, id int, p model.SalesRepPatch) (model.SalesRep, error)
	Delete(ctx context.Context, id int) error
}

// Dataset is a full set of records imported as-is, ids and timestamps
// included.
type Dataset struct {
	Contacts []model.Contact  `yaml:"contacts"`
	Deals    []model.Deal     `yaml:"deals"`
	Reps     []model.SalesRep `yaml:"reps"`
}

// Backend bundles the three stores of one storage engine.
type Backend interface {
	Deals() DealStore
	Contacts() ContactStore
	Reps() SalesRepStore

	// Empty reports whether no record of any type exists.
	Empty(ctx context.Context) (bool, error)
	// Import writes ds verbatim. It is meant for seeding an empty store.
	Import(ctx context.Context, ds Dataset) error
	Close() error
}
