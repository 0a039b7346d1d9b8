package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-forecast/models"
)

// DirectQualifiersPerGroup is the number of group finishers that advance
// without entering the cross-group comparison.
const DirectQualifiersPerGroup = 2

var ErrQualificationMismatch = errors.New("qualifier count does not match bracket size")

// CheckQualification verifies that the group format fills the bracket exactly.
func CheckQualification(groups, thirdPlaceSlots, bracketSize int) error {
	if !IsPowerOfTwo(bracketSize) || bracketSize < 2 {
		return fmt.Errorf("%w: bracket size %d is not a power of two", ErrQualificationMismatch, bracketSize)
	}
	if thirdPlaceSlots < 0 || thirdPlaceSlots > groups {
		return fmt.Errorf("%w: %d third-place slots for %d groups", ErrQualificationMismatch, thirdPlaceSlots, groups)
	}
	if got := DirectQualifiersPerGroup*groups + thirdPlaceSlots; got != bracketSize {
		return fmt.Errorf("%w: %d×%d direct + %d third-placed = %d, bracket holds %d",
			ErrQualificationMismatch, DirectQualifiersPerGroup, groups, thirdPlaceSlots, got, bracketSize)
	}
	return nil
}

// SelectQualifiers returns the top two of every group, in the order the
// groups are given, followed by the best thirdPlaceSlots third-placed rows.
//
// Third-placed rows are shuffled with g before a stable sort on
// (points, goal difference, goals for), so exact ties resolve at random but
// reproducibly for a given generator.
func SelectQualifiers(groups []models.GroupStandings, thirdPlaceSlots int, g *Generator) ([]string, error) {
	qualifiers := make([]string, 0, DirectQualifiersPerGroup*len(groups)+thirdPlaceSlots)
	thirds := make([]models.GroupStandingRow, 0, len(groups))

	for _, gs := range groups {
		if len(gs.Rows) < DirectQualifiersPerGroup+1 && thirdPlaceSlots > 0 {
			return nil, fmt.Errorf("group %s has %d rows, need at least %d", gs.Group, len(gs.Rows), DirectQualifiersPerGroup+1)
		}
		if len(gs.Rows) < DirectQualifiersPerGroup {
			return nil, fmt.Errorf("group %s has %d rows, need at least %d", gs.Group, len(gs.Rows), DirectQualifiersPerGroup)
		}
		qualifiers = append(qualifiers, gs.Rows[0].Competitor, gs.Rows[1].Competitor)
		if thirdPlaceSlots > 0 {
			thirds = append(thirds, gs.Rows[2])
		}
	}
	if thirdPlaceSlots > len(thirds) {
		return nil, fmt.Errorf("%w: %d third-place slots for %d groups", ErrQualificationMismatch, thirdPlaceSlots, len(thirds))
	}

	g.Shuffle(len(thirds), func(i, j int) {
		thirds[i], thirds[j] = thirds[j], thirds[i]
	})
	sort.SliceStable(thirds, func(i, j int) bool {
		a, b := thirds[i], thirds[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})

	for _, row := range thirds[:thirdPlaceSlots] {
		qualifiers = append(qualifiers, row.Competitor)
	}
	return qualifiers, nil
}
