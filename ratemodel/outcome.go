package ratemodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultMaxGoals bounds the scoreline grid of OutcomeProbabilities.
const DefaultMaxGoals = 10

var ErrZeroProbabilityMass = errors.New("truncated scoreline grid has zero probability mass")

// Outcome is the analytic home/draw/away split of one pairing.
type Outcome struct {
	LambdaHome float64
	LambdaAway float64
	HomeWin    float64
	Draw       float64
	AwayWin    float64
}

// OutcomeProbabilities sums the joint pmf of two independent Poisson scores
// over the 0..maxGoals square and renormalises by the retained mass.
//
// The grid is an approximation: scorelines beyond maxGoals are dropped and the
// remainder rescaled. Simulated trials draw unbounded scores instead and do not
// go through this function.
func OutcomeProbabilities(p Predictor, home, away string, neutral bool, maxGoals int) (Outcome, error) {
	if maxGoals < 0 {
		return Outcome{}, fmt.Errorf("max goals must be non-negative, got %d", maxGoals)
	}
	lambdaHome, lambdaAway, err := p.ExpectedGoals(home, away, neutral)
	if err != nil {
		return Outcome{}, err
	}
	if err := CheckRates(lambdaHome, lambdaAway); err != nil {
		return Outcome{}, fmt.Errorf("%s vs %s: %w", home, away, err)
	}

	homeDist := distuv.Poisson{Lambda: lambdaHome}
	awayDist := distuv.Poisson{Lambda: lambdaAway}

	homePMF := make([]float64, maxGoals+1)
	awayPMF := make([]float64, maxGoals+1)
	for k := 0; k <= maxGoals; k++ {
		homePMF[k] = homeDist.Prob(float64(k))
		awayPMF[k] = awayDist.Prob(float64(k))
	}

	out := Outcome{LambdaHome: lambdaHome, LambdaAway: lambdaAway}
	for i := 0; i <= maxGoals; i++ {
		for j := 0; j <= maxGoals; j++ {
			pij := homePMF[i] * awayPMF[j]
			switch {
			case i > j:
				out.HomeWin += pij
			case i == j:
				out.Draw += pij
			default:
				out.AwayWin += pij
			}
		}
	}

	total := out.HomeWin + out.Draw + out.AwayWin
	if !(total > 0) {
		return Outcome{}, fmt.Errorf("%s vs %s (λ=%v, %v): %w", home, away, lambdaHome, lambdaAway, ErrZeroProbabilityMass)
	}
	out.HomeWin /= total
	out.Draw /= total
	out.AwayWin /= total
	return out, nil
}
