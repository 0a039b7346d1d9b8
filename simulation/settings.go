package simulation

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrInvalidSettings = errors.New("invalid simulation settings")
	ErrFixtureMismatch = errors.New("fixtures do not match the group format")
	ErrBracketMismatch = errors.New("group format does not fill the knockout bracket")
)

// Settings configures one forecast run.
type Settings struct {
	Trials               int    `json:"trials" yaml:"trials"`
	Seed                 uint64 `json:"seed" yaml:"seed"`
	Workers              int    `json:"workers" yaml:"workers"`
	GroupSize            int    `json:"group_size" yaml:"group_size"`
	BracketSize          int    `json:"bracket_size" yaml:"bracket_size"`
	ThirdPlaceQualifiers int    `json:"third_place_qualifiers" yaml:"third_place_qualifiers"`
}

const (
	DefaultTrials               = 10000
	DefaultSeed                 = 123
	DefaultGroupSize            = 4
	DefaultBracketSize          = 32
	DefaultThirdPlaceQualifiers = 8
)

// DefaultSettings returns the reference 12-group, 32-team format.
func DefaultSettings() Settings {
	return Settings{
		Trials:               DefaultTrials,
		Seed:                 DefaultSeed,
		Workers:              runtime.NumCPU(),
		GroupSize:            DefaultGroupSize,
		BracketSize:          DefaultBracketSize,
		ThirdPlaceQualifiers: DefaultThirdPlaceQualifiers,
	}
}

func (s Settings) Validate() error {
	if s.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidSettings, s.Trials)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidSettings, s.Workers)
	}
	if s.GroupSize < 2 {
		return fmt.Errorf("%w: group size must be at least 2, got %d", ErrInvalidSettings, s.GroupSize)
	}
	if s.ThirdPlaceQualifiers < 0 {
		return fmt.Errorf("%w: third-place qualifiers must not be negative, got %d", ErrInvalidSettings, s.ThirdPlaceQualifiers)
	}
	if s.ThirdPlaceQualifiers > 0 && s.GroupSize < 3 {
		return fmt.Errorf("%w: third-place qualifiers need groups of at least 3", ErrInvalidSettings)
	}
	return nil
}
