package ratemodel

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidRate         = errors.New("expected-goal rate must be finite and strictly positive")
	ErrInvalidParameter    = errors.New("rate parameter must be finite")
	ErrDuplicateCompetitor = errors.New("competitor listed more than once in parameter table")
)

// UnknownCompetitorError is returned when a competitor has no fitted parameters.
type UnknownCompetitorError struct {
	Competitor string
}

func (e *UnknownCompetitorError) Error() string {
	return fmt.Sprintf("competitor %q has no fitted rate parameters", e.Competitor)
}

// TeamParams holds one competitor's attack and defence offsets on the log scale.
type TeamParams struct {
	Team    string  `json:"team" db:"team"`
	Attack  float64 `json:"attack" db:"attack"`
	Defence float64 `json:"defence" db:"defence"`
}

// Table is an immutable lookup of fitted rate parameters. It is built once per
// run and shared by every trial without locking.
type Table struct {
	intercept     float64
	homeAdvantage float64
	teams         map[string]TeamParams
}

// NewTable validates the parameters and builds the lookup. The intercept and
// home advantage are shared by all competitors.
func NewTable(intercept, homeAdvantage float64, params []TeamParams) (*Table, error) {
	if !isFinite(intercept) {
		return nil, fmt.Errorf("%w: intercept=%v", ErrInvalidParameter, intercept)
	}
	if !isFinite(homeAdvantage) {
		return nil, fmt.Errorf("%w: home_advantage=%v", ErrInvalidParameter, homeAdvantage)
	}

	teams := make(map[string]TeamParams, len(params))
	for _, p := range params {
		if _, exists := teams[p.Team]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCompetitor, p.Team)
		}
		if !isFinite(p.Attack) || !isFinite(p.Defence) {
			return nil, fmt.Errorf("%w: %q attack=%v defence=%v", ErrInvalidParameter, p.Team, p.Attack, p.Defence)
		}
		teams[p.Team] = p
	}

	return &Table{
		intercept:     intercept,
		homeAdvantage: homeAdvantage,
		teams:         teams,
	}, nil
}

func (t *Table) Intercept() float64     { return t.intercept }
func (t *Table) HomeAdvantage() float64 { return t.homeAdvantage }

// Lookup returns the parameters of one competitor.
func (t *Table) Lookup(team string) (TeamParams, error) {
	p, ok := t.teams[team]
	if !ok {
		return TeamParams{}, &UnknownCompetitorError{Competitor: team}
	}
	return p, nil
}

// Teams lists the known competitors in ascending order.
func (t *Table) Teams() []string {
	names := make([]string, 0, len(t.teams))
	for name := range t.teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Len() int {
	return len(t.teams)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
