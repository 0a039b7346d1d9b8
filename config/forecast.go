package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/Dosada05/tournament-forecast/simulation"
	"gopkg.in/yaml.v2"
)

// ForecastConfig задаёт параметры прогона по умолчанию.
type ForecastConfig struct {
	Trials               int    `yaml:"trials"`
	Seed                 uint64 `yaml:"seed"`
	Workers              int    `yaml:"workers"`
	GroupSize            int    `yaml:"group_size"`
	BracketSize          int    `yaml:"bracket_size"`
	ThirdPlaceQualifiers int    `yaml:"third_place_qualifiers"`
	MaxGoals             int    `yaml:"max_goals"`
}

// DefaultForecast возвращает эталонный формат: 12 групп по 4, сетка на 32.
func DefaultForecast() ForecastConfig {
	return ForecastConfig{
		Trials:               simulation.DefaultTrials,
		Seed:                 simulation.DefaultSeed,
		Workers:              runtime.NumCPU(),
		GroupSize:            simulation.DefaultGroupSize,
		BracketSize:          simulation.DefaultBracketSize,
		ThirdPlaceQualifiers: simulation.DefaultThirdPlaceQualifiers,
		MaxGoals:             ratemodel.DefaultMaxGoals,
	}
}

// Settings переводит конфигурацию в настройки движка.
func (f ForecastConfig) Settings() simulation.Settings {
	return simulation.Settings{
		Trials:               f.Trials,
		Seed:                 f.Seed,
		Workers:              f.Workers,
		GroupSize:            f.GroupSize,
		BracketSize:          f.BracketSize,
		ThirdPlaceQualifiers: f.ThirdPlaceQualifiers,
	}
}

// LoadForecastFile накладывает YAML-файл поверх base. Ключи, которых нет
// в файле, сохраняют значения из base.
func LoadForecastFile(path string, base ForecastConfig) (ForecastConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read forecast settings %s: %w", path, err)
	}
	cfg := base
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return base, fmt.Errorf("parse forecast settings %s: %w", path, err)
	}
	if cfg.MaxGoals < 0 {
		return base, fmt.Errorf("forecast settings %s: max_goals must not be negative, got %d", path, cfg.MaxGoals)
	}
	return cfg, nil
}

// LoadForecast собирает настройки прогона: значения по умолчанию,
// затем FORECAST_SETTINGS_FILE, затем явные переменные окружения.
func LoadForecast() (ForecastConfig, error) {
	cfg := DefaultForecast()

	if path := os.Getenv("FORECAST_SETTINGS_FILE"); path != "" {
		var err error
		cfg, err = LoadForecastFile(path, cfg)
		if err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("FORECAST_TRIALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("FORECAST_TRIALS must be a positive integer, got %q", v)
		}
		cfg.Trials = n
	}
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FORECAST_SEED environment variable: %w", err)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("FORECAST_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("FORECAST_WORKERS must be a positive integer, got %q", v)
		}
		cfg.Workers = n
	}
	return cfg, nil
}
