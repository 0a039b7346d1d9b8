package simulation

import (
	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/models"
)

// Tally holds integer sums and counts for a set of completed trials. A worker
// owns its tally exclusively; tallies are combined with Merge once the workers
// are done. Integer accumulation keeps the reduction exact and independent of
// merge order.
type Tally struct {
	Trials         int64
	Points         []int64
	GoalDifference []int64
	GoalsFor       []int64
	// Positions[c][p] counts trials where competitor c finished at position p+1.
	Positions [][]int64
	TopTwo    []int64
	Qualified []int64
	// Reached[c][r] counts trials where competitor c reached reachLabels[r].
	Reached [][]int64
}

func newTally(competitors, groupSize, rounds int) *Tally {
	t := &Tally{
		Points:         make([]int64, competitors),
		GoalDifference: make([]int64, competitors),
		GoalsFor:       make([]int64, competitors),
		Positions:      make([][]int64, competitors),
		TopTwo:         make([]int64, competitors),
		Qualified:      make([]int64, competitors),
		Reached:        make([][]int64, competitors),
	}
	for c := 0; c < competitors; c++ {
		t.Positions[c] = make([]int64, groupSize)
		t.Reached[c] = make([]int64, rounds)
	}
	return t
}

// Merge adds o into t.
func (t *Tally) Merge(o *Tally) {
	t.Trials += o.Trials
	for c := range t.Points {
		t.Points[c] += o.Points[c]
		t.GoalDifference[c] += o.GoalDifference[c]
		t.GoalsFor[c] += o.GoalsFor[c]
		t.TopTwo[c] += o.TopTwo[c]
		t.Qualified[c] += o.Qualified[c]
		for p := range t.Positions[c] {
			t.Positions[c][p] += o.Positions[c][p]
		}
		for r := range t.Reached[c] {
			t.Reached[c][r] += o.Reached[c][r]
		}
	}
}

// add records one finished trial. Reaching a round implies reaching every
// round before it, so the counters of all rounds up to the furthest one move.
func (t *Tally) add(e *Engine, trial *TrialResult) {
	t.Trials++
	for _, gs := range trial.Standings {
		for _, row := range gs.Rows {
			c := e.index[row.Competitor]
			t.Points[c] += int64(row.Points)
			t.GoalDifference[c] += int64(row.GoalDifference)
			t.GoalsFor[c] += int64(row.GoalsFor)
			t.Positions[c][row.Position-1]++
			if row.Position <= brackets.DirectQualifiersPerGroup {
				t.TopTwo[c]++
			}
		}
	}

	for _, q := range trial.Qualifiers {
		t.Qualified[e.index[q]]++
	}

	for competitor, label := range trial.Knockout.Reached {
		furthest, ok := e.stage[label]
		if !ok {
			continue
		}
		counts := t.Reached[e.index[competitor]]
		for r := 0; r < furthest; r++ {
			counts[r]++
		}
	}
}

// forecasts converts the tally into per-competitor rates.
func (t *Tally) forecasts(e *Engine) []models.CompetitorForecast {
	n := float64(t.Trials)
	rate := func(v int64) float64 {
		if t.Trials == 0 {
			return 0
		}
		return float64(v) / n
	}

	out := make([]models.CompetitorForecast, len(e.competitors))
	for c, name := range e.competitors {
		f := models.CompetitorForecast{
			Competitor:             name,
			Group:                  e.groupOf[c],
			ExpectedPoints:         rate(t.Points[c]),
			ExpectedGoalDifference: rate(t.GoalDifference[c]),
			ExpectedGoalsFor:       rate(t.GoalsFor[c]),
			PositionProbs:          make([]float64, len(t.Positions[c])),
			ProbTopTwo:             rate(t.TopTwo[c]),
			ProbQualify:            rate(t.Qualified[c]),
			RoundLabels:            e.reachLabels,
			RoundProbs:             make([]float64, len(t.Reached[c])),
		}
		for p, v := range t.Positions[c] {
			f.PositionProbs[p] = rate(v)
		}
		for r, v := range t.Reached[c] {
			f.RoundProbs[r] = rate(v)
		}
		out[c] = f
	}
	return out
}
