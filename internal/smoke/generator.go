package smoke

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/dealdesk/internal/domain/model"
)

var repNames = []string{"Sarah Johnson", "Michael Chen", "Emily Davis", "James Wilson", "Lisa Anderson"}

// generator produces deterministic payloads for a given seed.
type generator struct {
	rnd *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *generator) deal(i, year int) model.Deal {
	start := 1 + g.rnd.IntN(model.LastMonth)
	end := min(start+g.rnd.IntN(4), model.LastMonth)
	return model.Deal{
		Name:        fmt.Sprintf("Smoke deal %d", i),
		Value:       int64(1_000 * (1 + g.rnd.IntN(200))),
		AssignedRep: repNames[g.rnd.IntN(len(repNames))],
		Probability: g.rnd.IntN(101),
		Year:        year,
		StartMonth:  start,
		EndMonth:    end,
	}
}

// gesture is a single timeline request.
type gesture struct {
	resize bool
	month  int
}

func (g *generator) gesture() gesture {
	return gesture{resize: g.rnd.IntN(2) == 0, month: 1 + g.rnd.IntN(model.LastMonth)}
}

func (g *generator) stage() model.Stage {
	stages := model.Stages()
	return stages[g.rnd.IntN(len(stages))]
}
