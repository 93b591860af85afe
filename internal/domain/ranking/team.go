package ranking

import "github.com/okian/dealdesk/internal/domain/model"

// Medal tiers for the podium.
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// Standing is one row of the leaderboard.
type Standing struct {
	Position int            `json:"position"`
	Rep      model.SalesRep `json:"rep"`
	Score    int            `json:"score"`
	Medal    string         `json:"medal,omitempty"`
}

// Standings ranks reps and numbers them from 1. The first three get medals.
func Standings(reps []model.SalesRep) []Standing {
	ranked := Rank(reps)
	out := make([]Standing, len(ranked))
	for i, r := range ranked {
		out[i] = Standing{Position: i + 1, Rep: r, Score: Score(r), Medal: medal(i + 1)}
	}
	return out
}

func medal(position int) string {
	switch position {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return ""
	}
}

// Team aggregates the whole sales team. Optional reps are nil when no rep
// qualifies.
type Team struct {
	TotalReps          int             `json:"total_reps"`
	TotalRevenue       int64           `json:"total_revenue"`
	TotalDealsClosed   int             `json:"total_deals_closed"`
	AverageDealsPerRep float64         `json:"average_deals_per_rep"`
	TopPerformer       *model.SalesRep `json:"top_performer"`
	RunnerUp           *model.SalesRep `json:"runner_up"`
	MostCalls          *model.SalesRep `json:"most_calls"`
	MostMeetings       *model.SalesRep `json:"most_meetings"`
}

// TeamStats summarises reps.
func TeamStats(reps []model.SalesRep) Team {
	t := Team{TotalReps: len(reps)}
	for _, r := range reps {
		t.TotalRevenue += r.Revenue
		t.TotalDealsClosed += r.DealsClosed
	}
	if len(reps) == 0 {
		return t
	}
	t.AverageDealsPerRep = float64(t.TotalDealsClosed) / float64(len(reps))

	ranked := Rank(reps)
	t.TopPerformer = ptr(ranked[0])
	if len(ranked) > 1 {
		t.RunnerUp = ptr(ranked[1])
	}
	if r, ok := MostOf(reps, LeadsContacted); ok {
		t.MostCalls = ptr(r)
	}
	if r, ok := MostOf(reps, MeetingsBooked); ok {
		t.MostMeetings = ptr(r)
	}
	return t
}

func ptr(r model.SalesRep) *model.SalesRep { return &r }
