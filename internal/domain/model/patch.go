package model

import "time"

// DealPatch carries a partial deal update. Nil fields are left unchanged.
type DealPatch struct {
	ContactID   *int    `json:"contact_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Value       *int64  `json:"value,omitempty"`
	Stage       *Stage  `json:"stage,omitempty"`
	AssignedRep *string `json:"assigned_rep,omitempty"`
	Probability *int    `json:"probability,omitempty"`
	Year        *int    `json:"year,omitempty"`
	StartMonth  *int    `json:"start_month,omitempty"`
	EndMonth    *int    `json:"end_month,omitempty"`
}

// Apply returns d with the non-nil patch fields merged in.
func (p DealPatch) Apply(d Deal) Deal {
	setIf(&d.ContactID, p.ContactID)
	setIf(&d.Name, p.Name)
	setIf(&d.Value, p.Value)
	setIf(&d.Stage, p.Stage)
	setIf(&d.AssignedRep, p.AssignedRep)
	setIf(&d.Probability, p.Probability)
	setIf(&d.Year, p.Year)
	setIf(&d.StartMonth, p.StartMonth)
	setIf(&d.EndMonth, p.EndMonth)
	return d
}

// ContactPatch carries a partial contact update.
type ContactPatch struct {
	Name          *string        `json:"name,omitempty"`
	Email         *string        `json:"email,omitempty"`
	Company       *string        `json:"company,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	Status        *ContactStatus `json:"status,omitempty"`
	AssignedRep   *string        `json:"assigned_rep,omitempty"`
	Tags          *[]string      `json:"tags,omitempty"`
	LastContacted *time.Time     `json:"last_contacted,omitempty"`
}

// Apply returns c with the non-nil patch fields merged in. Tags are
// normalised and copied.
func (p ContactPatch) Apply(c Contact) Contact {
	setIf(&c.Name, p.Name)
	setIf(&c.Email, p.Email)
	setIf(&c.Company, p.Company)
	setIf(&c.Phone, p.Phone)
	setIf(&c.Status, p.Status)
	setIf(&c.AssignedRep, p.AssignedRep)
	if p.Tags != nil {
		c.Tags = NormalizeTags(*p.Tags)
	}
	if p.LastContacted != nil {
		t := *p.LastContacted
		c.LastContacted = &t
	}
	return c
}

// SalesRepPatch carries a partial sales rep update.
type SalesRepPatch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Avatar         *string `json:"avatar,omitempty"`
	LeadsContacted *int    `json:"leads_contacted,omitempty"`
	MeetingsBooked *int    `json:"meetings_booked,omitempty"`
	DealsClosed    *int    `json:"deals_closed,omitempty"`
	Revenue        *int64  `json:"revenue,omitempty"`
}

// Apply returns r with the non-nil patch fields merged in.
func (p SalesRepPatch) Apply(r SalesRep) SalesRep {
	setIf(&r.Name, p.Name)
	setIf(&r.Email, p.Email)
	setIf(&r.Avatar, p.Avatar)
	setIf(&r.LeadsContacted, p.LeadsContacted)
	setIf(&r.MeetingsBooked, p.MeetingsBooked)
	setIf(&r.DealsClosed, p.DealsClosed)
	setIf(&r.Revenue, p.Revenue)
	return r
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
