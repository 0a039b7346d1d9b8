package models

import "time"

// Fixture is one scheduled group-stage match. Fixtures are loaded once and
// shared read-only by every trial of a run.
type Fixture struct {
	ID      int       `json:"id,omitempty" db:"id"`
	Date    time.Time `json:"date" db:"match_date"`
	Group   string    `json:"group" db:"group_label"`
	Home    string    `json:"home" db:"home_team"`
	Away    string    `json:"away" db:"away_team"`
	Neutral bool      `json:"neutral" db:"neutral"`
}

// Scoreline is the full-time result of one simulated match.
type Scoreline struct {
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`
}

func (s Scoreline) IsDraw() bool {
	return s.HomeGoals == s.AwayGoals
}

// MatchPreview holds the analytic outcome probabilities of a single pairing.
type MatchPreview struct {
	Date       *time.Time `json:"date,omitempty"`
	Group      string     `json:"group,omitempty"`
	Home       string     `json:"home"`
	Away       string     `json:"away"`
	Neutral    bool       `json:"neutral"`
	LambdaHome float64    `json:"lambda_home"`
	LambdaAway float64    `json:"lambda_away"`
	HomeWin    float64    `json:"p_home_win"`
	Draw       float64    `json:"p_draw"`
	AwayWin    float64    `json:"p_away_win"`
}
