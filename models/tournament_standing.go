package models

// GroupStandingRow is one competitor's line in a group table for a single trial.
type GroupStandingRow struct {
	Competitor     string `json:"competitor"`
	Group          string `json:"group"`
	Position       int    `json:"position"` // 1-based, assigned after ranking
	Points         int    `json:"points"`
	GoalDifference int    `json:"goal_difference"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
}

// GroupStandings is the ranked table of one group.
type GroupStandings struct {
	Group string             `json:"group"`
	Rows  []GroupStandingRow `json:"rows"`
}
