package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/Dosada05/tournament-forecast/repositories"
)

// PreviewService считает аналитические вероятности исходов отдельных матчей.
type PreviewService interface {
	FixturePreviews(ctx context.Context) ([]models.MatchPreview, error)
	MatchPreview(ctx context.Context, home, away string, neutral bool) (*models.MatchPreview, error)
}

type previewService struct {
	fixtureRepo repositories.FixtureRepository
	paramRepo   repositories.RateParamRepository
	maxGoals    int
}

func NewPreviewService(fixtureRepo repositories.FixtureRepository, paramRepo repositories.RateParamRepository, maxGoals int) PreviewService {
	return &previewService{
		fixtureRepo: fixtureRepo,
		paramRepo:   paramRepo,
		maxGoals:    maxGoals,
	}
}

func (s *previewService) loadTable(ctx context.Context) (*ratemodel.Table, error) {
	table, err := s.paramRepo.LoadTable(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrRateParamsEmpty) {
			return nil, ErrModelNotFitted
		}
		return nil, err
	}
	return table, nil
}

func (s *previewService) FixturePreviews(ctx context.Context) ([]models.MatchPreview, error) {
	fixtures, err := s.fixtureRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	table, err := s.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	previews, err := ratemodel.PreviewFixtures(table, fixtures, s.maxGoals)
	if err != nil {
		return nil, mapModelError(err)
	}
	return previews, nil
}

func (s *previewService) MatchPreview(ctx context.Context, home, away string, neutral bool) (*models.MatchPreview, error) {
	if home == "" || away == "" || home == away {
		return nil, fmt.Errorf("%w: home and away must be two different competitors", ErrValidationFailed)
	}
	table, err := s.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	preview, err := ratemodel.Preview(table, models.Fixture{Home: home, Away: away, Neutral: neutral}, s.maxGoals)
	if err != nil {
		return nil, mapModelError(err)
	}
	return &preview, nil
}

func mapModelError(err error) error {
	var unknown *ratemodel.UnknownCompetitorError
	switch {
	case errors.As(err, &unknown):
		return fmt.Errorf("%w: %s", ErrUnknownCompetitor, unknown.Competitor)
	case errors.Is(err, ratemodel.ErrInvalidRate), errors.Is(err, ratemodel.ErrZeroProbabilityMass):
		return fmt.Errorf("%w: %w", ErrForecastInvalid, err)
	}
	return err
}
