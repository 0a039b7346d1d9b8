package ratemodel

import (
	"github.com/Dosada05/tournament-forecast/models"
)

// Preview prices a single fixture analytically.
func Preview(p Predictor, f models.Fixture, maxGoals int) (models.MatchPreview, error) {
	out, err := OutcomeProbabilities(p, f.Home, f.Away, f.Neutral, maxGoals)
	if err != nil {
		return models.MatchPreview{}, err
	}
	preview := models.MatchPreview{
		Group:      f.Group,
		Home:       f.Home,
		Away:       f.Away,
		Neutral:    f.Neutral,
		LambdaHome: out.LambdaHome,
		LambdaAway: out.LambdaAway,
		HomeWin:    out.HomeWin,
		Draw:       out.Draw,
		AwayWin:    out.AwayWin,
	}
	if !f.Date.IsZero() {
		d := f.Date
		preview.Date = &d
	}
	return preview, nil
}

// PreviewFixtures prices every fixture in order and stops at the first error.
func PreviewFixtures(p Predictor, fixtures []models.Fixture, maxGoals int) ([]models.MatchPreview, error) {
	previews := make([]models.MatchPreview, 0, len(fixtures))
	for _, f := range fixtures {
		preview, err := Preview(p, f, maxGoals)
		if err != nil {
			return nil, err
		}
		previews = append(previews, preview)
	}
	return previews, nil
}
