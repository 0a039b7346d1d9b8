package brackets

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

const (
	// RoundGroup marks a competitor that never entered the bracket.
	RoundGroup = "Group"
	// RoundWinner is the terminal label held only by the champion.
	RoundWinner = "W"
)

var ErrBracketSize = errors.New("bracket size must be a power of two of at least 2")

// RatesFunc returns neutral-venue expected goals for a knockout pairing.
type RatesFunc func(first, second string) (lambdaFirst, lambdaSecond float64)

// KnockoutResult records one simulated bracket.
type KnockoutResult struct {
	// Reached maps every entrant to the furthest round label it reached:
	// the round it lost in, or "W" for the champion.
	Reached map[string]string
	// Rounds[i] lists the entrants of round i in pairing order.
	Rounds   [][]string
	Champion string
	RunnerUp string
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// RoundLabels names the rounds of a bracket with `size` entrants, entry round
// first: 32 gives R32, R16, QF, SF, F.
func RoundLabels(size int) ([]string, error) {
	if size < 2 || !IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: got %d", ErrBracketSize, size)
	}
	rounds := bits.TrailingZeros(uint(size))
	labels := make([]string, 0, rounds)
	for n := size; n >= 2; n /= 2 {
		labels = append(labels, roundLabel(n))
	}
	return labels, nil
}

func roundLabel(entrants int) string {
	switch entrants {
	case 2:
		return "F"
	case 4:
		return "SF"
	case 8:
		return "QF"
	default:
		return "R" + strconv.Itoa(entrants)
	}
}

// PlayKnockout shuffles the qualifiers into a bracket once and plays it out.
// Pairings are sequential within each round (0 v 1, 2 v 3, ...) and are never
// re-drawn. A drawn scoreline goes to a coin flip.
func PlayKnockout(qualifiers []string, rates RatesFunc, g *Generator) (*KnockoutResult, error) {
	labels, err := RoundLabels(len(qualifiers))
	if err != nil {
		return nil, err
	}

	current := make([]string, len(qualifiers))
	copy(current, qualifiers)
	g.Shuffle(len(current), func(i, j int) {
		current[i], current[j] = current[j], current[i]
	})

	result := &KnockoutResult{
		Reached: make(map[string]string, len(qualifiers)),
		Rounds:  make([][]string, 0, len(labels)),
	}

	for _, label := range labels {
		result.Rounds = append(result.Rounds, current)
		next := make([]string, 0, len(current)/2)
		for i := 0; i < len(current); i += 2 {
			first, second := current[i], current[i+1]
			winner, loser := playTie(first, second, rates, g)
			result.Reached[loser] = label
			next = append(next, winner)
			if label == "F" {
				result.RunnerUp = loser
			}
		}
		current = next
	}

	if len(current) != 1 {
		return nil, fmt.Errorf("bracket finished with %d competitors, expected 1", len(current))
	}
	result.Champion = current[0]
	result.Reached[result.Champion] = RoundWinner
	return result, nil
}

func playTie(first, second string, rates RatesFunc, g *Generator) (winner, loser string) {
	lambdaFirst, lambdaSecond := rates(first, second)
	score := SampleScore(lambdaFirst, lambdaSecond, g)
	switch {
	case score.HomeGoals > score.AwayGoals:
		return first, second
	case score.AwayGoals > score.HomeGoals:
		return second, first
	case ResolveShootout(g):
		return first, second
	default:
		return second, first
	}
}

// ResolveShootout decides a drawn knockout match: true means the first listed
// side advances. It is a fair coin, not a model of penalties.
func ResolveShootout(g *Generator) bool {
	return g.CoinFlip()
}
