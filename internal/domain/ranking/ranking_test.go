package ranking_test

import (
	"testing"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func rep(id int, name string, leads, meetings, deals int) model.SalesRep {
	return model.SalesRep{ID: id, Name: name, LeadsContacted: leads, MeetingsBooked: meetings, DealsClosed: deals}
}

func names(reps []model.SalesRep) []string {
	out := make([]string, len(reps))
	for i, r := range reps {
		out[i] = r.Name
	}
	return out
}

func TestScore(t *testing.T) {
	Convey("Given a rep with 5 deals, 4 meetings and 10 leads", t, func() {
		r := rep(1, "Sam", 10, 4, 5)

		Convey("Then the score is 33", func() {
			So(ranking.Score(r), ShouldEqual, 33)
		})

		Convey("Then a changed counter changes the score", func() {
			r.DealsClosed++
			So(ranking.Score(r), ShouldEqual, 36)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given A and B tied at 10 and C at 20", t, func() {
		reps := []model.SalesRep{rep(1, "A", 10, 0, 0), rep(2, "B", 0, 5, 0), rep(3, "C", 20, 0, 0)}

		Convey("Then the order is C, A, B", func() {
			So(names(ranking.Rank(reps)), ShouldResemble, []string{"C", "A", "B"})
		})

		Convey("Then ranking is idempotent", func() {
			once := ranking.Rank(reps)
			So(ranking.Rank(once), ShouldResemble, once)
		})

		Convey("Then the input is not reordered", func() {
			_ = ranking.Rank(reps)
			So(names(reps), ShouldResemble, []string{"A", "B", "C"})
		})

		Convey("Then empty input ranks to empty", func() {
			So(ranking.Rank(nil), ShouldBeEmpty)
		})
	})
}

func TestTopPerformer(t *testing.T) {
	Convey("Given no reps", t, func() {
		_, ok := ranking.TopPerformer(nil)
		So(ok, ShouldBeFalse)
	})

	Convey("Given tied leaders", t, func() {
		reps := []model.SalesRep{rep(1, "A", 1, 0, 0), rep(2, "B", 0, 0, 2), rep(3, "C", 6, 0, 0)}
		top, ok := ranking.TopPerformer(reps)

		Convey("Then it agrees with the head of Rank", func() {
			So(ok, ShouldBeTrue)
			So(top.Name, ShouldEqual, "B")
			So(top, ShouldResemble, ranking.Rank(reps)[0])
		})
	})
}

func TestMostOf(t *testing.T) {
	Convey("Given reps with tied meeting counts", t, func() {
		reps := []model.SalesRep{rep(1, "A", 5, 7, 0), rep(2, "B", 9, 7, 0), rep(3, "C", 9, 1, 0)}

		Convey("Then the first maximum wins", func() {
			r, ok := ranking.MostOf(reps, ranking.MeetingsBooked)
			So(ok, ShouldBeTrue)
			So(r.Name, ShouldEqual, "A")

			r, _ = ranking.MostOf(reps, ranking.LeadsContacted)
			So(r.Name, ShouldEqual, "B")
		})

		Convey("Then any selector works", func() {
			reps[2].Revenue = 100
			r, _ := ranking.MostOf(reps, ranking.Revenue)
			So(r.Name, ShouldEqual, "C")
		})

		Convey("Then empty input has no result", func() {
			_, ok := ranking.MostOf(nil, ranking.DealsClosed)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestStandingsAndTeam(t *testing.T) {
	Convey("Given four reps", t, func() {
		reps := []model.SalesRep{
			rep(1, "A", 10, 0, 1),
			rep(2, "B", 0, 0, 10),
			rep(3, "C", 40, 2, 0),
			rep(4, "D", 1, 0, 0),
		}
		reps[0].Revenue = 1000
		reps[1].Revenue = 5000

		Convey("Then standings carry positions, scores and medals", func() {
			st := ranking.Standings(reps)
			So(len(st), ShouldEqual, 4)
			So(st[0].Rep.Name, ShouldEqual, "C")
			So(st[0].Score, ShouldEqual, 44)
			So(st[0].Medal, ShouldEqual, ranking.MedalGold)
			So(st[1].Medal, ShouldEqual, ranking.MedalSilver)
			So(st[2].Medal, ShouldEqual, ranking.MedalBronze)
			So(st[3].Medal, ShouldEqual, "")
			So(st[3].Position, ShouldEqual, 4)
		})

		Convey("Then team stats summarise the team", func() {
			team := ranking.TeamStats(reps)
			So(team.TotalReps, ShouldEqual, 4)
			So(team.TotalRevenue, ShouldEqual, 6000)
			So(team.AverageDealsPerRep, ShouldEqual, 2.75)
			So(team.TopPerformer.Name, ShouldEqual, "C")
			So(team.RunnerUp.Name, ShouldEqual, "B")
			So(team.MostCalls.Name, ShouldEqual, "C")
			So(team.MostMeetings.Name, ShouldEqual, "C")
		})
	})

	Convey("Given an empty team", t, func() {
		team := ranking.TeamStats(nil)
		So(team.TotalReps, ShouldEqual, 0)
		So(team.AverageDealsPerRep, ShouldEqual, 0)
		So(team.TopPerformer, ShouldBeNil)
		So(team.RunnerUp, ShouldBeNil)
	})
}
