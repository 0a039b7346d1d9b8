package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"golang.org/x/sync/errgroup"
)

type pricedFixture struct {
	home, away             string
	lambdaHome, lambdaAway float64
}

type group struct {
	label       string
	competitors []string
	fixtures    []pricedFixture
}

// Engine runs Monte Carlo trials over a validated, read-only tournament
// snapshot. Every rate a trial needs is computed in NewEngine, so trials
// cannot fail on bad input and an Engine is safe for concurrent use.
type Engine struct {
	settings Settings
	logger   *slog.Logger

	groups      []group
	competitors []string
	index       map[string]int
	groupOf     []string

	// neutral[i][j] holds neutral-venue rates for competitor i against j.
	neutral [][][2]float64

	bracketLabels []string
	reachLabels   []string
	stage         map[string]int
}

// TrialResult is the full outcome of one trial.
type TrialResult struct {
	Standings  []models.GroupStandings
	Qualifiers []string
	Knockout   *brackets.KnockoutResult
}

// Report is the aggregate of a completed run.
type Report struct {
	Settings    Settings
	RoundLabels []string
	Rows        []models.CompetitorForecast
	Duration    time.Duration
}

// NewEngine validates the fixtures against the settings and the predictor.
// All configuration problems surface here, before any trial runs.
func NewEngine(fixtures []models.Fixture, predictor ratemodel.Predictor, settings Settings, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("%w: no fixtures", ErrFixtureMismatch)
	}

	e := &Engine{
		settings: settings,
		logger:   logger,
		index:    make(map[string]int),
	}
	if err := e.buildGroups(fixtures, predictor); err != nil {
		return nil, err
	}
	if err := brackets.CheckQualification(len(e.groups), settings.ThirdPlaceQualifiers, settings.BracketSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBracketMismatch, err)
	}
	if err := e.buildNeutralRates(predictor); err != nil {
		return nil, err
	}
	if err := e.buildLabels(); err != nil {
		return nil, err
	}

	logger.Info("forecast engine ready",
		slog.Int("groups", len(e.groups)),
		slog.Int("competitors", len(e.competitors)),
		slog.Int("fixtures", len(fixtures)),
		slog.Int("bracket_size", settings.BracketSize),
	)
	return e, nil
}

func (e *Engine) buildGroups(fixtures []models.Fixture, predictor ratemodel.Predictor) error {
	byLabel := make(map[string]*group)
	members := make(map[string]map[string]bool)
	meetings := make(map[string]map[pairing]int)
	groupOf := make(map[string]string)

	claim := func(label, competitor string) error {
		if prev, ok := groupOf[competitor]; ok && prev != label {
			return fmt.Errorf("%w: %q plays in groups %s and %s", ErrFixtureMismatch, competitor, prev, label)
		}
		groupOf[competitor] = label
		members[label][competitor] = true
		return nil
	}

	for _, f := range fixtures {
		if f.Group == "" {
			return fmt.Errorf("%w: fixture %s vs %s has no group", ErrFixtureMismatch, f.Home, f.Away)
		}
		if f.Home == f.Away {
			return fmt.Errorf("%w: %q is drawn against itself in group %s", ErrFixtureMismatch, f.Home, f.Group)
		}
		g, ok := byLabel[f.Group]
		if !ok {
			g = &group{label: f.Group}
			byLabel[f.Group] = g
			members[f.Group] = make(map[string]bool)
			meetings[f.Group] = make(map[pairing]int)
		}
		if err := claim(f.Group, f.Home); err != nil {
			return err
		}
		if err := claim(f.Group, f.Away); err != nil {
			return err
		}
		meetings[f.Group][newPairing(f.Home, f.Away)]++

		lambdaHome, lambdaAway, err := predictor.ExpectedGoals(f.Home, f.Away, f.Neutral)
		if err != nil {
			return fmt.Errorf("group %s fixture %s vs %s: %w", f.Group, f.Home, f.Away, err)
		}
		g.fixtures = append(g.fixtures, pricedFixture{
			home: f.Home, away: f.Away,
			lambdaHome: lambdaHome, lambdaAway: lambdaAway,
		})
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		g := byLabel[label]
		for c := range members[label] {
			g.competitors = append(g.competitors, c)
		}
		sort.Strings(g.competitors)
		if len(g.competitors) != e.settings.GroupSize {
			return fmt.Errorf("%w: group %s has %d competitors, expected %d",
				ErrFixtureMismatch, label, len(g.competitors), e.settings.GroupSize)
		}
		if err := checkSchedule(label, g.competitors, meetings[label]); err != nil {
			return err
		}
		for _, c := range g.competitors {
			e.index[c] = len(e.competitors)
			e.competitors = append(e.competitors, c)
			e.groupOf = append(e.groupOf, label)
		}
		e.groups = append(e.groups, *g)
	}
	return nil
}

type pairing struct{ a, b string }

func newPairing(x, y string) pairing {
	if x > y {
		x, y = y, x
	}
	return pairing{x, y}
}

// checkSchedule requires a complete round robin: every pair of members meets,
// and all pairs meet the same number of times.
func checkSchedule(label string, competitors []string, meetings map[pairing]int) error {
	legs := 0
	for i := 0; i < len(competitors); i++ {
		for j := i + 1; j < len(competitors); j++ {
			n := meetings[newPairing(competitors[i], competitors[j])]
			if n == 0 {
				return fmt.Errorf("%w: group %s has no fixture between %s and %s",
					ErrFixtureMismatch, label, competitors[i], competitors[j])
			}
			if legs == 0 {
				legs = n
			} else if n != legs {
				return fmt.Errorf("%w: group %s: %s and %s meet %d times, other pairs %d",
					ErrFixtureMismatch, label, competitors[i], competitors[j], n, legs)
			}
		}
	}
	return nil
}

// buildNeutralRates prices every ordered pairing at a neutral venue, since any
// two competitors may meet in the bracket.
func (e *Engine) buildNeutralRates(predictor ratemodel.Predictor) error {
	n := len(e.competitors)
	e.neutral = make([][][2]float64, n)
	for i := range e.neutral {
		e.neutral[i] = make([][2]float64, n)
	}
	for i, a := range e.competitors {
		for j, b := range e.competitors {
			if i == j {
				continue
			}
			lambdaA, lambdaB, err := predictor.ExpectedGoals(a, b, true)
			if err != nil {
				return fmt.Errorf("knockout pairing %s vs %s: %w", a, b, err)
			}
			e.neutral[i][j] = [2]float64{lambdaA, lambdaB}
		}
	}
	return nil
}

func (e *Engine) buildLabels() error {
	labels, err := brackets.RoundLabels(e.settings.BracketSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBracketMismatch, err)
	}
	e.bracketLabels = labels
	e.reachLabels = append(append([]string(nil), labels[1:]...), brackets.RoundWinner)
	e.stage = make(map[string]int, len(labels)+1)
	for i, l := range labels {
		e.stage[l] = i
	}
	e.stage[brackets.RoundWinner] = len(labels)
	return nil
}

func (e *Engine) Settings() Settings { return e.settings }

// Competitors lists every competitor, grouped by group label.
func (e *Engine) Competitors() []string {
	return append([]string(nil), e.competitors...)
}

// RoundLabels lists the knockout stages reported per competitor: every round
// after the bracket entry round, ending with the champion label.
func (e *Engine) RoundLabels() []string {
	return append([]string(nil), e.reachLabels...)
}

func (e *Engine) knockoutRates(first, second string) (float64, float64) {
	r := e.neutral[e.index[first]][e.index[second]]
	return r[0], r[1]
}

// Trial plays trial number index. The same index always yields the same
// result for a given seed, whichever worker runs it.
func (e *Engine) Trial(index int) (*TrialResult, error) {
	return e.play(brackets.NewGenerator(e.settings.Seed, uint64(index)))
}

func (e *Engine) play(g *brackets.Generator) (*TrialResult, error) {
	standings := make([]models.GroupStandings, len(e.groups))
	for i, grp := range e.groups {
		table := brackets.NewGroupTable(grp.label, grp.competitors)
		for _, f := range grp.fixtures {
			score := brackets.SampleScore(f.lambdaHome, f.lambdaAway, g)
			if err := table.Record(f.home, f.away, score); err != nil {
				return nil, err
			}
		}
		standings[i] = models.GroupStandings{Group: grp.label, Rows: table.Standings()}
	}

	qualifiers, err := brackets.SelectQualifiers(standings, e.settings.ThirdPlaceQualifiers, g)
	if err != nil {
		return nil, err
	}
	knockout, err := brackets.PlayKnockout(qualifiers, e.knockoutRates, g)
	if err != nil {
		return nil, err
	}

	return &TrialResult{Standings: standings, Qualifiers: qualifiers, Knockout: knockout}, nil
}

// Run plays every trial and aggregates the results. Trials are split into
// contiguous index ranges, one per worker. progress, when not nil, receives
// the running count of completed trials and may be called from several
// goroutines. A cancelled run returns the context error and no report.
func (e *Engine) Run(ctx context.Context, progress func(completed int)) (*Report, error) {
	started := time.Now()
	trials := e.settings.Trials
	workers := e.settings.Workers
	if workers > trials {
		workers = trials
	}
	chunk := (trials + workers - 1) / workers

	step := trials / 100
	if step == 0 {
		step = 1
	}
	var completed atomic.Int64

	tallies := make([]*Tally, workers)
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, trials)
		tally := e.newTally()
		tallies[w] = tally
		if lo >= hi {
			continue
		}

		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				result, err := e.Trial(i)
				if err != nil {
					return fmt.Errorf("trial %d: %w", i, err)
				}
				tally.add(e, result)

				done := int(completed.Add(1))
				if progress != nil && (done%step == 0 || done == trials) {
					progress(done)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		e.logger.Warn("forecast run aborted", slog.Int64("completed", completed.Load()), slog.Any("error", err))
		return nil, err
	}

	total := e.newTally()
	for _, t := range tallies {
		total.Merge(t)
	}

	rows := total.forecasts(e)
	SortForecasts(rows)

	report := &Report{
		Settings:    e.settings,
		RoundLabels: e.RoundLabels(),
		Rows:        rows,
		Duration:    time.Since(started),
	}
	e.logger.Info("forecast run completed",
		slog.Int("trials", trials),
		slog.Int("workers", workers),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Engine) newTally() *Tally {
	return newTally(len(e.competitors), e.settings.GroupSize, len(e.reachLabels))
}

// SortForecasts orders rows by the probability of reaching the last four
// stages (champion first, then final, semi-final, quarter-final), highest
// first, then by competitor name.
func SortForecasts(rows []models.CompetitorForecast) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].RoundProbs, rows[j].RoundProbs
		for k := 0; k < 4; k++ {
			ia, ib := len(a)-1-k, len(b)-1-k
			if ia < 0 || ib < 0 {
				break
			}
			if a[ia] != b[ib] {
				return a[ia] > b[ib]
			}
		}
		return rows[i].Competitor < rows[j].Competitor
	})
}
