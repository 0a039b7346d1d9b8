// Command forecast runs a tournament forecast offline from CSV and YAML
// inputs and writes the aggregated report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dosada05/tournament-forecast/config"
	"github.com/Dosada05/tournament-forecast/dataset"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/Dosada05/tournament-forecast/report"
	"github.com/Dosada05/tournament-forecast/simulation"
	"github.com/jessevdk/go-flags"
)

type options struct {
	Fixtures string `short:"f" long:"fixtures" description:"fixture CSV (date, group, home_team, away_team, neutral)"`
	Groups   string `short:"g" long:"groups" description:"group YAML; round-robin fixtures are generated from it"`
	Params   string `short:"p" long:"params" description:"fitted rate parameter CSV" required:"true"`
	Settings string `short:"s" long:"settings" description:"forecast settings YAML" env:"FORECAST_SETTINGS_FILE"`

	Trials   *int    `short:"n" long:"trials" description:"number of trials"`
	Seed     *uint64 `long:"seed" description:"base seed"`
	Workers  *int    `short:"w" long:"workers" description:"worker goroutines"`
	MaxGoals *int    `long:"max-goals" description:"score grid bound for previews"`

	Out      string `short:"o" long:"out" description:"write the CSV report to this file ('-' for stdout)"`
	Top      int    `long:"top" default:"10" description:"rows in the console summary (0 to disable)"`
	Previews bool   `long:"previews" description:"print analytic outcome probabilities of every fixture"`
	Verbose  bool   `short:"v" long:"verbose" description:"debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("forecast failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// loadSettings накладывает --settings и флаги поверх окружения.
func loadSettings(opts options) (config.ForecastConfig, error) {
	cfg := config.DefaultForecast()
	if opts.Settings != "" {
		var err error
		if cfg, err = config.LoadForecastFile(opts.Settings, cfg); err != nil {
			return cfg, err
		}
	}
	if opts.Trials != nil {
		cfg.Trials = *opts.Trials
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
	}
	if opts.Workers != nil {
		cfg.Workers = *opts.Workers
	}
	if opts.MaxGoals != nil {
		cfg.MaxGoals = *opts.MaxGoals
	}
	return cfg, nil
}

func loadFixtures(opts options) ([]models.Fixture, error) {
	switch {
	case opts.Fixtures != "" && opts.Groups != "":
		return nil, errors.New("--fixtures and --groups are mutually exclusive")
	case opts.Fixtures != "":
		return dataset.LoadFixtures(opts.Fixtures)
	case opts.Groups != "":
		return dataset.LoadGroups(opts.Groups)
	default:
		return nil, errors.New("one of --fixtures or --groups is required")
	}
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}
	fixtures, err := loadFixtures(opts)
	if err != nil {
		return err
	}
	table, err := dataset.LoadParams(opts.Params)
	if err != nil {
		return err
	}

	if opts.Previews {
		previews, err := ratemodel.PreviewFixtures(table, fixtures, cfg.MaxGoals)
		if err != nil {
			return err
		}
		if err := report.WritePreviews(stdout, previews); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	engine, err := simulation.NewEngine(fixtures, table, cfg.Settings(), logger)
	if err != nil {
		return err
	}

	settings := engine.Settings()
	step := max(settings.Trials/10, 1)
	result, err := engine.Run(ctx, func(completed int) {
		if completed%step == 0 || completed == settings.Trials {
			logger.Debug("progress", slog.Int("completed", completed), slog.Int("total", settings.Trials))
		}
	})
	if err != nil {
		return err
	}

	if opts.Top > 0 {
		if err := report.WriteTable(stdout, result.Rows, opts.Top); err != nil {
			return err
		}
	}

	if opts.Out != "" {
		if err := writeReport(opts.Out, stdout, result.Rows); err != nil {
			return err
		}
		logger.Info("report written", slog.String("path", opts.Out), slog.Int("rows", len(result.Rows)))
	}
	return nil
}

func writeReport(path string, stdout io.Writer, rows []models.CompetitorForecast) (err error) {
	if path == "-" {
		return report.WriteCSV(stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return report.WriteCSV(f, rows)
}
