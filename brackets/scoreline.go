package brackets

import "github.com/Dosada05/tournament-forecast/models"

// SampleScore draws a full-time scoreline from two independent Poisson rates.
// Rates must already be validated; there is no cap on the number of goals.
func SampleScore(lambdaHome, lambdaAway float64, g *Generator) models.Scoreline {
	return models.Scoreline{
		HomeGoals: g.Poisson(lambdaHome),
		AwayGoals: g.Poisson(lambdaAway),
	}
}
