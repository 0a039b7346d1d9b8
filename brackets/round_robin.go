package brackets

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/tournament-forecast/models"
)

const (
	PointsWin  = 3
	PointsDraw = 1
)

var ErrNotInGroup = errors.New("competitor is not a member of this group")

// GenerateRoundRobin creates the fixtures of one group where every competitor
// meets every other competitor once per leg. With two legs the second meeting
// swaps home and away.
func GenerateRoundRobin(group string, competitors []string, legs int, start time.Time, neutral bool) ([]models.Fixture, error) {
	if len(competitors) < 2 {
		return nil, fmt.Errorf("round robin for group %s: not enough competitors (found %d, min 2 required)", group, len(competitors))
	}
	if legs != 1 && legs != 2 {
		return nil, fmt.Errorf("round robin for group %s: legs must be 1 or 2, got %d", group, legs)
	}

	pairings := len(competitors) * (len(competitors) - 1) / 2
	fixtures := make([]models.Fixture, 0, pairings*legs)
	order := 0
	for i := 0; i < len(competitors); i++ {
		for j := i + 1; j < len(competitors); j++ {
			fixtures = append(fixtures, models.Fixture{
				Date:    start.AddDate(0, 0, order),
				Group:   group,
				Home:    competitors[i],
				Away:    competitors[j],
				Neutral: neutral,
			})
			if legs == 2 {
				fixtures = append(fixtures, models.Fixture{
					Date:    start.AddDate(0, 0, order+pairings),
					Group:   group,
					Home:    competitors[j],
					Away:    competitors[i],
					Neutral: neutral,
				})
			}
			order++
		}
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Date.Before(fixtures[j].Date)
	})
	return fixtures, nil
}

// GroupTable accumulates one group's results for a single trial.
type GroupTable struct {
	group string
	rows  []models.GroupStandingRow
	index map[string]int
}

func NewGroupTable(group string, competitors []string) *GroupTable {
	t := &GroupTable{
		group: group,
		rows:  make([]models.GroupStandingRow, len(competitors)),
		index: make(map[string]int, len(competitors)),
	}
	for i, c := range competitors {
		t.rows[i] = models.GroupStandingRow{Competitor: c, Group: group}
		t.index[c] = i
	}
	return t
}

func (t *GroupTable) Group() string {
	return t.group
}

// Record applies one scoreline to both sides of the fixture.
func (t *GroupTable) Record(home, away string, score models.Scoreline) error {
	hi, ok := t.index[home]
	if !ok {
		return fmt.Errorf("group %s: %w: %q", t.group, ErrNotInGroup, home)
	}
	ai, ok := t.index[away]
	if !ok {
		return fmt.Errorf("group %s: %w: %q", t.group, ErrNotInGroup, away)
	}
	t.apply(hi, ai, score)
	return nil
}

func (t *GroupTable) apply(hi, ai int, score models.Scoreline) {
	h, a := &t.rows[hi], &t.rows[ai]

	h.GoalsFor += score.HomeGoals
	h.GoalsAgainst += score.AwayGoals
	a.GoalsFor += score.AwayGoals
	a.GoalsAgainst += score.HomeGoals
	h.GoalDifference = h.GoalsFor - h.GoalsAgainst
	a.GoalDifference = a.GoalsFor - a.GoalsAgainst

	switch {
	case score.HomeGoals > score.AwayGoals:
		h.Points += PointsWin
	case score.HomeGoals < score.AwayGoals:
		a.Points += PointsWin
	default:
		h.Points += PointsDraw
		a.Points += PointsDraw
	}
}

// Standings returns a ranked copy of the table with positions assigned.
func (t *GroupTable) Standings() []models.GroupStandingRow {
	rows := make([]models.GroupStandingRow, len(t.rows))
	copy(rows, t.rows)
	RankStandings(rows)
	return rows
}

// RankStandings sorts rows by (points, goal difference, goals for, competitor),
// every key descending, and assigns 1-based positions. On a full tie the
// lexicographically greater identifier ranks higher.
func RankStandings(rows []models.GroupStandingRow) {
	sort.Slice(rows, func(i, j int) bool {
		return ranksAbove(rows[i], rows[j])
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}

func ranksAbove(a, b models.GroupStandingRow) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	return a.Competitor > b.Competitor
}
