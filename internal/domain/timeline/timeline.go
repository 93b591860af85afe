// Package timeline places deals on a twelve-month calendar and applies the
// drag-move and resize gestures. Every function is pure: inputs are never
// mutated and results are returned for the caller to persist.
package timeline

import (
	"fmt"

	"github.com/okian/dealdesk/internal/domain/model"
)

const monthsPerYear = model.LastMonth

// Span is an inclusive month range within one year.
type Span struct {
	Start int `json:"start_month"`
	End   int `json:"end_month"`
}

// SpanOf returns the span a deal currently occupies.
func SpanOf(d model.Deal) Span {
	return Span{Start: d.StartMonth, End: d.EndMonth}
}

// Months is the number of calendar months the span covers.
func (s Span) Months() int { return s.End - s.Start + 1 }

// Placement is a deal's position on the month axis as fractions of a year.
type Placement struct {
	Left  Fraction `json:"left"`
	Width Fraction `json:"width"`
}

// SelectYear returns the deals of year in input order. The result never
// shares a backing array with deals.
func SelectYear(deals []model.Deal, year int) []model.Deal {
	out := make([]model.Deal, 0, len(deals))
	for _, d := range deals {
		if d.Year == year {
			out = append(out, d)
		}
	}
	return out
}

// ApplyMove shifts a deal so it starts at targetStartMonth, keeping its
// duration. The end is clamped to December, which can shorten the span.
// Callers guarantee targetStartMonth >= 1.
func ApplyMove(d model.Deal, targetStartMonth int) Span {
	duration := d.EndMonth - d.StartMonth
	end := targetStartMonth + duration
	if end > monthsPerYear {
		end = monthsPerYear
	}
	return Span{Start: targetStartMonth, End: end}
}

// ApplyResize moves the end of a deal, holding its start fixed.
func ApplyResize(d model.Deal, newEndMonth int) (Span, error) {
	if newEndMonth < d.StartMonth {
		return Span{}, fmt.Errorf("%w: end month %d before start month %d", ErrInvalidSpan, newEndMonth, d.StartMonth)
	}
	return Span{Start: d.StartMonth, End: newEndMonth}, nil
}

// PlacementFraction returns left = (start-1)/12 and width = (end-start+1)/12.
// Left plus Width is exactly end/12.
func PlacementFraction(d model.Deal) Placement {
	return Placement{
		Left:  NewFraction(d.StartMonth-1, monthsPerYear),
		Width: NewFraction(d.EndMonth-d.StartMonth+1, monthsPerYear),
	}
}

// Stats summarises one year of the timeline.
type Stats struct {
	Count                 int     `json:"count"`
	TotalValue            int64   `json:"total_value"`
	AverageDurationMonths float64 `json:"average_duration_months"`
	// PeakMonth is nil when the year has no deals.
	PeakMonth *int `json:"peak_month"`
}

// YearlyStatistics aggregates the deals of year. Empty input yields zero
// values and a nil PeakMonth. Peak ties go to the earliest month.
func YearlyStatistics(deals []model.Deal, year int) Stats {
	var (
		st       Stats
		months   int
		coverage [monthsPerYear + 1]int
	)
	for _, d := range deals {
		if d.Year != year {
			continue
		}
		st.Count++
		st.TotalValue += d.Value
		months += d.EndMonth - d.StartMonth + 1
		for m := max(d.StartMonth, 1); m <= min(d.EndMonth, monthsPerYear); m++ {
			coverage[m]++
		}
	}
	if st.Count == 0 {
		return st
	}
	st.AverageDurationMonths = float64(months) / float64(st.Count)

	peak := 1
	for m := 2; m <= monthsPerYear; m++ {
		if coverage[m] > coverage[peak] {
			peak = m
		}
	}
	st.PeakMonth = &peak
	return st
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name or "N/A" for nil or out of
// range input.
func MonthName(m *int) string {
	if m == nil || *m < 1 || *m > monthsPerYear {
		return "N/A"
	}
	return monthNames[*m-1]
}
