package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/tournament-forecast/dataset"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/Dosada05/tournament-forecast/repositories"
)

// DatasetService загружает фикстуры и обученные параметры модели в базу.
// Каждый импорт целиком заменяет предыдущий набор данных.
type DatasetService interface {
	ImportFixtures(ctx context.Context, r io.Reader) (int, error)
	// ImportGroups строит круговой турнир по YAML-описанию групп.
	ImportGroups(ctx context.Context, r io.Reader) (int, error)
	ImportRateParams(ctx context.Context, r io.Reader) (int, error)
}

type datasetService struct {
	db          *sql.DB
	fixtureRepo repositories.FixtureRepository
	paramRepo   repositories.RateParamRepository
	logger      *slog.Logger
}

func NewDatasetService(db *sql.DB, fixtureRepo repositories.FixtureRepository, paramRepo repositories.RateParamRepository, logger *slog.Logger) DatasetService {
	return &datasetService{
		db:          db,
		fixtureRepo: fixtureRepo,
		paramRepo:   paramRepo,
		logger:      logger,
	}
}

func (s *datasetService) ImportFixtures(ctx context.Context, r io.Reader) (int, error) {
	fixtures, err := dataset.ReadFixtures(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return s.replaceFixtures(ctx, fixtures)
}

func (s *datasetService) ImportGroups(ctx context.Context, r io.Reader) (int, error) {
	fixtures, err := dataset.ReadGroups(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return s.replaceFixtures(ctx, fixtures)
}

func (s *datasetService) replaceFixtures(ctx context.Context, fixtures []models.Fixture) (int, error) {
	if len(fixtures) == 0 {
		return 0, ErrFixturesMissing
	}
	err := runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.fixtureRepo.DeleteAll(ctx, exec); err != nil {
			return fmt.Errorf("failed to clear fixtures: %w", err)
		}
		return s.fixtureRepo.CreateBatch(ctx, exec, fixtures)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrFixtureConflict) || errors.Is(err, repositories.ErrFixtureInvalid) {
			return 0, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		return 0, err
	}
	s.logger.Info("fixtures imported", slog.Int("count", len(fixtures)))
	return len(fixtures), nil
}

func (s *datasetService) ImportRateParams(ctx context.Context, r io.Reader) (int, error) {
	table, err := dataset.ReadParams(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	teams := table.Teams()
	params := make([]ratemodel.TeamParams, 0, len(teams))
	for _, team := range teams {
		p, err := table.Lookup(team)
		if err != nil {
			return 0, err
		}
		params = append(params, p)
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		return s.paramRepo.ReplaceAll(ctx, exec, table.Intercept(), table.HomeAdvantage(), params)
	})
	if err != nil {
		return 0, mapModelError(err)
	}
	s.logger.Info("rate parameters imported", slog.Int("teams", len(params)))
	return len(params), nil
}
