package brackets

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator is the single random source of one trial. Every sampling step of
// the trial (scorelines, third-place shuffle, bracket draw, shootouts) reads
// from it in a fixed order, so a trial is reproducible from (seed, stream).
type Generator struct {
	src *rand.PCG
	rng *rand.Rand
}

// NewGenerator returns the generator for substream `stream` of `seed`.
// Distinct streams never overlap, which lets trials run on any worker.
func NewGenerator(seed, stream uint64) *Generator {
	src := rand.NewPCG(seed, stream)
	return &Generator{src: src, rng: rand.New(src)}
}

// Poisson draws an unbounded Poisson variate with the given rate.
func (g *Generator) Poisson(lambda float64) int {
	return int(distuv.Poisson{Lambda: lambda, Src: g.src}.Rand())
}

func (g *Generator) Float64() float64 {
	return g.rng.Float64()
}

func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	g.rng.Shuffle(n, swap)
}

// CoinFlip reports true with probability 0.5.
func (g *Generator) CoinFlip() bool {
	return g.rng.Float64() < 0.5
}
