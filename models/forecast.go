package models

// CompetitorForecast is the aggregated result of a run for one competitor.
//
// PositionProbs[i] is the probability of finishing in group position i+1.
// RoundProbs[i] is the probability of reaching RoundLabels[i]; the labels start
// with the round after the bracket entry round and end with "W" (champion).
//
// Every probability is an integer count divided by the number of trials. The
// counts behind PositionProbs sum to the trial count exactly; the rates sum to
// 1 up to float64 rounding (within 1e-12), not bit-exactly.
type CompetitorForecast struct {
	RunID                  int       `json:"run_id,omitempty" db:"run_id"`
	Competitor             string    `json:"competitor" db:"competitor"`
	Group                  string    `json:"group" db:"group_label"`
	ExpectedPoints         float64   `json:"expected_points" db:"expected_points"`
	ExpectedGoalDifference float64   `json:"expected_goal_difference" db:"expected_goal_difference"`
	ExpectedGoalsFor       float64   `json:"expected_goals_for" db:"expected_goals_for"`
	PositionProbs          []float64 `json:"position_probs" db:"position_probs"`
	ProbTopTwo             float64   `json:"prob_top_two" db:"prob_top_two"`
	ProbQualify            float64   `json:"prob_qualify" db:"prob_qualify"`
	RoundLabels            []string  `json:"round_labels" db:"-"`
	RoundProbs             []float64 `json:"round_probs" db:"round_probs"`
}

// ProbPosition returns the probability of finishing at the 1-based position.
func (f CompetitorForecast) ProbPosition(position int) float64 {
	if position < 1 || position > len(f.PositionProbs) {
		return 0
	}
	return f.PositionProbs[position-1]
}

// ProbReach returns the probability of reaching the knockout round with the
// given label ("R16", "QF", "SF", "F", "W"). Unknown labels report 0.
func (f CompetitorForecast) ProbReach(label string) float64 {
	for i, l := range f.RoundLabels {
		if l == label && i < len(f.RoundProbs) {
			return f.RoundProbs[i]
		}
	}
	return 0
}

func (f CompetitorForecast) ProbChampion() float64 {
	return f.ProbReach("W")
}
