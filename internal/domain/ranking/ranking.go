// Package ranking orders sales reps by a weighted performance score.
//
// The score is always recomputed from the counters; nothing here caches it.
package ranking

import (
	"sort"

	"github.com/okian/dealdesk/internal/domain/model"
)

// Score weights.
const (
	DealWeight    = 3
	MeetingWeight = 2
	LeadWeight    = 1
)

// Score returns dealsClosed*3 + meetingsBooked*2 + leadsContacted.
func Score(r model.SalesRep) int {
	return r.DealsClosed*DealWeight + r.MeetingsBooked*MeetingWeight + r.LeadsContacted*LeadWeight
}

// Rank returns a copy of reps sorted by descending score. Equal scores keep
// their input order.
func Rank(reps []model.SalesRep) []model.SalesRep {
	out := make([]model.SalesRep, len(reps))
	copy(out, reps)
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i]) > Score(out[j])
	})
	return out
}

// TopPerformer returns the first rep of Rank(reps). ok is false when reps is
// empty.
func TopPerformer(reps []model.SalesRep) (top model.SalesRep, ok bool) {
	if len(reps) == 0 {
		return model.SalesRep{}, false
	}
	best := 0
	for i := 1; i < len(reps); i++ {
		if Score(reps[i]) > Score(reps[best]) {
			best = i
		}
	}
	return reps[best], true
}

// Metric selects a numeric value from a rep.
type Metric func(model.SalesRep) int64

// Named metrics for MostOf.
var (
	LeadsContacted Metric = func(r model.SalesRep) int64 { return int64(r.LeadsContacted) }
	MeetingsBooked Metric = func(r model.SalesRep) int64 { return int64(r.MeetingsBooked) }
	DealsClosed    Metric = func(r model.SalesRep) int64 { return int64(r.DealsClosed) }
	Revenue        Metric = func(r model.SalesRep) int64 { return r.Revenue }
	ScoreMetric    Metric = func(r model.SalesRep) int64 { return int64(Score(r)) }
)

// MostOf returns the rep with the largest metric value; the first one wins a
// tie. ok is false when reps is empty.
func MostOf(reps []model.SalesRep, metric Metric) (model.SalesRep, bool) {
	if len(reps) == 0 {
		return model.SalesRep{}, false
	}
	best, bestVal := 0, metric(reps[0])
	for i := 1; i < len(reps); i++ {
		if v := metric(reps[i]); v > bestVal {
			best, bestVal = i, v
		}
	}
	return reps[best], true
}
