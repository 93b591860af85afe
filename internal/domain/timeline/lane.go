package timeline

import "github.com/okian/dealdesk/internal/domain/model"

// UnknownContact labels deals whose contact cannot be found.
const UnknownContact = "Unknown"

// Formatter renders whole-unit money amounts.
type Formatter interface {
	Format(amount int64) string
}

// LaneEntry is one deal row on the yearly timeline.
type LaneEntry struct {
	Deal           model.Deal `json:"deal"`
	Placement      Placement  `json:"placement"`
	DurationMonths int        `json:"duration_months"`
	ContactName    string     `json:"contact_name"`
	FormattedValue string     `json:"formatted_value"`
}

// Lane builds the display rows for year in input order.
func Lane(deals []model.Deal, contacts []model.Contact, year int, f Formatter) []LaneEntry {
	names := make(map[int]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}

	selected := SelectYear(deals, year)
	out := make([]LaneEntry, 0, len(selected))
	for _, d := range selected {
		name, ok := names[d.ContactID]
		if !ok {
			name = UnknownContact
		}
		out = append(out, LaneEntry{
			Deal:           d,
			Placement:      PlacementFraction(d),
			DurationMonths: SpanOf(d).Months(),
			ContactName:    name,
			FormattedValue: f.Format(d.Value),
		})
	}
	return out
}
