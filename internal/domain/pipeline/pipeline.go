// Package pipeline derives the kanban board and sales analytics from deals
// and contacts.
package pipeline

import (
	"sort"

	"github.com/okian/dealdesk/internal/domain/model"
)

// RecentLimit caps the recent deals and contacts on the dashboard.
const RecentLimit = 5

// Column is one stage of the board.
type Column struct {
	Stage      model.Stage  `json:"stage"`
	Deals      []model.Deal `json:"deals"`
	Count      int          `json:"count"`
	TotalValue int64        `json:"total_value"`
}

// Board groups deals into stage columns in pipeline order. Deals keep input
// order within a column; deals with an unknown stage are left out.
func Board(deals []model.Deal) []Column {
	cols := make([]Column, len(model.Stages()))
	for i, st := range model.Stages() {
		cols[i] = Column{Stage: st, Deals: []model.Deal{}}
	}
	for _, d := range deals {
		i := d.Stage.Index()
		if i < 0 {
			continue
		}
		cols[i].Deals = append(cols[i].Deals, d)
		cols[i].Count++
		cols[i].TotalValue += d.Value
	}
	return cols
}

// Summary holds the pipeline headline numbers.
type Summary struct {
	TotalValue      int64   `json:"total_value"`
	TotalDeals      int     `json:"total_deals"`
	AverageDealSize float64 `json:"average_deal_size"`
	// WinRate is closed / (closed + lost) as a percentage.
	WinRate float64 `json:"win_rate"`
}

// Stats summarises deals. Empty input and a pipeline with no finished deals
// yield zero averages and rates.
func Stats(deals []model.Deal) Summary {
	var s Summary
	var won, lost int
	for _, d := range deals {
		s.TotalDeals++
		s.TotalValue += d.Value
		switch d.Stage {
		case model.StageClosed:
			won++
		case model.StageLost:
			lost++
		}
	}
	if s.TotalDeals > 0 {
		s.AverageDealSize = float64(s.TotalValue) / float64(s.TotalDeals)
	}
	if won+lost > 0 {
		s.WinRate = float64(won) / float64(won+lost) * 100
	}
	return s
}

// StageOverview counts deals per stage.
type StageOverview struct {
	Stage model.Stage `json:"stage"`
	Count int         `json:"count"`
	Value int64       `json:"value"`
}

// Overview is the landing dashboard.
type Overview struct {
	TotalLeads     int             `json:"total_leads"`
	MeetingsBooked int             `json:"meetings_booked"`
	DealsClosed    int             `json:"deals_closed"`
	ConversionRate float64         `json:"conversion_rate"`
	Stages         []StageOverview `json:"stages"`
	RecentDeals    []model.Deal    `json:"recent_deals"`
	RecentContacts []model.Contact `json:"recent_contacts"`
}

// Dashboard builds the overview. A deal counts as a booked meeting once it
// reaches "meeting booked" or "meeting done". Conversion is closed deals per
// lead as a percentage.
func Dashboard(contacts []model.Contact, deals []model.Deal) Overview {
	o := Overview{TotalLeads: len(contacts)}
	for _, d := range deals {
		switch d.Stage {
		case model.StageMeetingBooked, model.StageMeetingDone:
			o.MeetingsBooked++
		case model.StageClosed:
			o.DealsClosed++
		}
	}
	if o.TotalLeads > 0 {
		o.ConversionRate = float64(o.DealsClosed) / float64(o.TotalLeads) * 100
	}

	for _, col := range Board(deals) {
		o.Stages = append(o.Stages, StageOverview{Stage: col.Stage, Count: col.Count, Value: col.TotalValue})
	}
	o.RecentDeals = RecentDeals(deals, RecentLimit)
	o.RecentContacts = RecentContacts(contacts, RecentLimit)
	return o
}

// RecentDeals returns up to n deals by most recent update. Ties keep input
// order.
func RecentDeals(deals []model.Deal, n int) []model.Deal {
	out := make([]model.Deal, len(deals))
	copy(out, deals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out[:min(n, len(out))]
}

// RecentContacts returns up to n contacts that have been contacted, most
// recent first.
func RecentContacts(contacts []model.Contact, n int) []model.Contact {
	out := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.LastContacted != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastContacted.After(*out[j].LastContacted)
	})
	return out[:min(n, len(out))]
}
