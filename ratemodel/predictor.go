package ratemodel

import (
	"fmt"
	"math"
)

// Predictor turns a pairing into expected goals for each side.
type Predictor interface {
	ExpectedGoals(home, away string, neutral bool) (lambdaHome, lambdaAway float64, err error)
}

// ExpectedGoals evaluates the log-linear rate model:
//
//	log λ_home = intercept + attack_home + defence_away (+ home_advantage unless neutral)
//	log λ_away = intercept + attack_away + defence_home
func (t *Table) ExpectedGoals(home, away string, neutral bool) (float64, float64, error) {
	h, err := t.Lookup(home)
	if err != nil {
		return 0, 0, err
	}
	a, err := t.Lookup(away)
	if err != nil {
		return 0, 0, err
	}

	logHome := t.intercept + h.Attack + a.Defence
	logAway := t.intercept + a.Attack + h.Defence
	if !neutral {
		logHome += t.homeAdvantage
	}

	lambdaHome, lambdaAway := math.Exp(logHome), math.Exp(logAway)
	if err := CheckRates(lambdaHome, lambdaAway); err != nil {
		return 0, 0, fmt.Errorf("%s vs %s: %w", home, away, err)
	}
	return lambdaHome, lambdaAway, nil
}

// CheckRates rejects rates that cannot parameterise a Poisson draw. A bad rate
// means the parameter table is corrupt, so callers must not clip it.
func CheckRates(lambdaHome, lambdaAway float64) error {
	for _, l := range [2]float64{lambdaHome, lambdaAway} {
		if !isFinite(l) || l <= 0 {
			return fmt.Errorf("%w: got %v", ErrInvalidRate, l)
		}
	}
	return nil
}
