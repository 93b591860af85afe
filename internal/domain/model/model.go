// Package model contains the CRM records passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Month bounds of the timeline axis.
const (
	FirstMonth = 1
	LastMonth  = 12
)

// Deal is an opportunity placed on the pipeline board and the yearly timeline.
type Deal struct {
	ID          int       `json:"id" yaml:"id"`
	ContactID   int       `json:"contact_id" yaml:"contact_id"`
	Name        string    `json:"name" yaml:"name"`
	Value       int64     `json:"value" yaml:"value"`
	Stage       Stage     `json:"stage" yaml:"stage"`
	AssignedRep string    `json:"assigned_rep" yaml:"assigned_rep"`
	Probability int       `json:"probability" yaml:"probability"`
	Year        int       `json:"year" yaml:"year"`
	StartMonth  int       `json:"start_month" yaml:"start_month"`
	EndMonth    int       `json:"end_month" yaml:"end_month"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the invariants every stored deal must hold.
func (d Deal) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: deal name is empty", ErrInvalidRecord)
	case d.Value < 0:
		return fmt.Errorf("%w: deal value %d is negative", ErrInvalidRecord, d.Value)
	case d.Probability < 0 || d.Probability > 100:
		return fmt.Errorf("%w: probability %d outside 0..100", ErrInvalidRecord, d.Probability)
	case !validMonth(d.StartMonth) || !validMonth(d.EndMonth):
		return fmt.Errorf("%w: months %d..%d outside 1..12", ErrInvalidRecord, d.StartMonth, d.EndMonth)
	case d.StartMonth > d.EndMonth:
		return fmt.Errorf("%w: start month %d after end month %d", ErrInvalidRecord, d.StartMonth, d.EndMonth)
	case !d.Stage.Valid():
		return fmt.Errorf("%w: %q", ErrInvalidStage, d.Stage)
	}
	return nil
}

// WithDefaults fills a new deal's empty stage and zero span.
func (d Deal) WithDefaults() Deal {
	if d.Stage == "" {
		d.Stage = StageConnected
	}
	if d.StartMonth == 0 && d.EndMonth == 0 {
		d.StartMonth, d.EndMonth = FirstMonth, FirstMonth
	}
	return d
}

func validMonth(m int) bool { return m >= FirstMonth && m <= LastMonth }

// SalesRep is a member of the sales team. The leaderboard score is derived
// from the counters and never stored.
type SalesRep struct {
	ID             int    `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Email          string `json:"email" yaml:"email"`
	Avatar         string `json:"avatar" yaml:"avatar"`
	LeadsContacted int    `json:"leads_contacted" yaml:"leads_contacted"`
	MeetingsBooked int    `json:"meetings_booked" yaml:"meetings_booked"`
	DealsClosed    int    `json:"deals_closed" yaml:"deals_closed"`
	Revenue        int64  `json:"revenue" yaml:"revenue"`
}

// Validate checks the counters are non-negative.
func (r SalesRep) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: rep name is empty", ErrInvalidRecord)
	case r.LeadsContacted < 0 || r.MeetingsBooked < 0 || r.DealsClosed < 0:
		return fmt.Errorf("%w: rep counters must be non-negative", ErrInvalidRecord)
	case r.Revenue < 0:
		return fmt.Errorf("%w: revenue %d is negative", ErrInvalidRecord, r.Revenue)
	}
	return nil
}

// Contact is a lead or customer.
type Contact struct {
	ID            int           `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Email         string        `json:"email" yaml:"email"`
	Company       string        `json:"company" yaml:"company"`
	Phone         string        `json:"phone" yaml:"phone"`
	Status        ContactStatus `json:"status" yaml:"status"`
	AssignedRep   string        `json:"assigned_rep" yaml:"assigned_rep"`
	Tags          []string      `json:"tags" yaml:"tags"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	LastContacted *time.Time    `json:"last_contacted" yaml:"last_contacted"`
}

// Validate checks the contact has a name and a known status.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: contact name is empty", ErrInvalidRecord)
	}
	if _, err := ParseContactStatus(string(c.Status)); err != nil {
		return err
	}
	return nil
}

// WithDefaults gives a new contact the "new" status and normalised tags.
func (c Contact) WithDefaults() Contact {
	if c.Status == "" {
		c.Status = StatusNew
	}
	c.Tags = NormalizeTags(c.Tags)
	return c
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
