package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/report"
	"github.com/Dosada05/tournament-forecast/repositories"
	"github.com/Dosada05/tournament-forecast/simulation"
	"github.com/Dosada05/tournament-forecast/storage"
)

// Ограничения одного прогона через API.
const (
	MaxTrials  = 1_000_000
	MaxWorkers = 256
)

// ForecastOverrides переопределяет настройки прогона по умолчанию.
type ForecastOverrides struct {
	Trials  *int    `json:"trials,omitempty"`
	Seed    *uint64 `json:"seed,omitempty"`
	Workers *int    `json:"workers,omitempty"`
}

// ProgressBroadcaster рассылает события прогона подписчикам комнаты.
type ProgressBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type ForecastService interface {
	// StartForecast проверяет конфигурацию синхронно и запускает прогон в фоне.
	StartForecast(ctx context.Context, overrides ForecastOverrides, userID *int) (*models.ForecastRun, error)
	GetForecast(ctx context.Context, id int) (*models.ForecastRun, error)
	ListResults(ctx context.Context, id int) ([]models.CompetitorForecast, error)
	// Shutdown отменяет текущий прогон и ждёт завершения фоновой горутины.
	Shutdown(ctx context.Context) error
}

type forecastService struct {
	db           *sql.DB
	fixtureRepo  repositories.FixtureRepository
	paramRepo    repositories.RateParamRepository
	forecastRepo repositories.ForecastRepository
	store        storage.ReportStore
	hub          ProgressBroadcaster
	defaults     simulation.Settings
	logger       *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	// mu защищает closed и wg.Add от гонки с Shutdown
	mu     sync.Mutex
	closed bool
}

// NewForecastService создаёт сервис. store может быть nil: тогда CSV-отчёты не выгружаются.
func NewForecastService(
	db *sql.DB,
	fixtureRepo repositories.FixtureRepository,
	paramRepo repositories.RateParamRepository,
	forecastRepo repositories.ForecastRepository,
	store storage.ReportStore,
	hub ProgressBroadcaster,
	defaults simulation.Settings,
	logger *slog.Logger,
) ForecastService {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &forecastService{
		db:           db,
		fixtureRepo:  fixtureRepo,
		paramRepo:    paramRepo,
		forecastRepo: forecastRepo,
		store:        store,
		hub:          hub,
		defaults:     defaults,
		logger:       logger,
		baseCtx:      baseCtx,
		cancel:       cancel,
	}
}

func (s *forecastService) StartForecast(ctx context.Context, overrides ForecastOverrides, userID *int) (*models.ForecastRun, error) {
	if s.isClosed() {
		return nil, ErrServiceShuttingDown
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrForecastInProgress
	}
	release := true
	defer func() {
		if release {
			s.running.Store(false)
		}
	}()

	engine, err := s.prepare(ctx, overrides)
	if err != nil {
		return nil, err
	}

	settings := engine.Settings()
	run := &models.ForecastRun{
		Trials:               settings.Trials,
		Seed:                 settings.Seed,
		Workers:              settings.Workers,
		GroupSize:            settings.GroupSize,
		BracketSize:          settings.BracketSize,
		ThirdPlaceQualifiers: settings.ThirdPlaceQualifiers,
		RoundLabels:          engine.RoundLabels(),
		CreatedBy:            userID,
	}
	if err := s.forecastRepo.CreateRun(ctx, nil, run); err != nil {
		return nil, fmt.Errorf("failed to create forecast run: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if err := s.forecastRepo.FailRun(ctx, run.ID, ErrServiceShuttingDown.Error()); err != nil {
			s.logger.Error("failed to mark forecast run as failed", slog.Int("run_id", run.ID), slog.Any("error", err))
		}
		return nil, ErrServiceShuttingDown
	}
	release = false
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.execute(engine, run.ID)
	}()

	s.logger.Info("forecast run started", slog.Int("run_id", run.ID), slog.Int("trials", run.Trials))
	return run, nil
}

// prepare загружает фикстуры и параметры модели и строит движок.
// Все ошибки конфигурации возникают здесь, до запуска испытаний.
func (s *forecastService) prepare(ctx context.Context, overrides ForecastOverrides) (*simulation.Engine, error) {
	settings := s.defaults
	if overrides.Trials != nil {
		if *overrides.Trials > MaxTrials {
			return nil, fmt.Errorf("%w: trials must not exceed %d", ErrValidationFailed, MaxTrials)
		}
		settings.Trials = *overrides.Trials
	}
	if overrides.Seed != nil {
		settings.Seed = *overrides.Seed
	}
	if overrides.Workers != nil {
		if *overrides.Workers > MaxWorkers {
			return nil, fmt.Errorf("%w: workers must not exceed %d", ErrValidationFailed, MaxWorkers)
		}
		settings.Workers = *overrides.Workers
	}

	fixtures, err := s.fixtureRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil, ErrFixturesMissing
	}

	table, err := s.paramRepo.LoadTable(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrRateParamsEmpty) {
			return nil, ErrModelNotFitted
		}
		return nil, fmt.Errorf("%w: %w", ErrForecastInvalid, err)
	}

	engine, err := simulation.NewEngine(fixtures, table, settings, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForecastInvalid, err)
	}
	return engine, nil
}

func (s *forecastService) execute(engine *simulation.Engine, runID int) {
	room := brackets.ForecastRoom(runID)
	total := engine.Settings().Trials

	result, err := engine.Run(s.baseCtx, func(completed int) {
		s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.MessageForecastProgress,
			Payload: brackets.ForecastProgress{RunID: runID, Completed: completed, Total: total},
			RoomID:  room,
		})
	})
	if err == nil {
		err = s.persist(s.baseCtx, runID, result)
	}
	if err != nil {
		s.fail(runID, total, err)
		return
	}

	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageForecastCompleted,
		Payload: brackets.ForecastProgress{RunID: runID, Completed: total, Total: total},
		RoomID:  room,
	})
	s.logger.Info("forecast run stored", slog.Int("run_id", runID), slog.Duration("duration", result.Duration))
}

// persist выгружает отчёт (если есть хранилище) и сохраняет результаты одной транзакцией.
func (s *forecastService) persist(ctx context.Context, runID int, result *simulation.Report) error {
	var reportKey *string
	if s.store != nil {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, result.Rows); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		uploaded, err := s.store.Upload(ctx, storage.ReportKey(runID), "text/csv", &buf)
		if err != nil {
			// Отчёт вторичен: результаты всё равно сохраняются в базе
			s.logger.Warn("report upload failed", slog.Int("run_id", runID), slog.Any("error", err))
		} else {
			reportKey = &uploaded.Key
		}
	}

	err := runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.forecastRepo.SaveResults(ctx, exec, runID, result.Rows); err != nil {
			return err
		}
		return s.forecastRepo.CompleteRun(ctx, exec, runID, reportKey)
	})
	if err != nil && reportKey != nil {
		if delErr := s.store.Delete(context.Background(), *reportKey); delErr != nil {
			s.logger.Warn("failed to delete orphaned report", slog.String("key", *reportKey), slog.Any("error", delErr))
		}
	}
	return err
}

func (s *forecastService) fail(runID, total int, cause error) {
	s.logger.Error("forecast run failed", slog.Int("run_id", runID), slog.Any("error", cause))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.forecastRepo.FailRun(ctx, runID, cause.Error()); err != nil {
		s.logger.Error("failed to mark forecast run as failed", slog.Int("run_id", runID), slog.Any("error", err))
	}

	room := brackets.ForecastRoom(runID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageForecastFailed,
		Payload: brackets.ForecastProgress{RunID: runID, Total: total, Error: cause.Error()},
		RoomID:  room,
	})
}

func (s *forecastService) GetForecast(ctx context.Context, id int) (*models.ForecastRun, error) {
	run, err := s.forecastRepo.GetRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrForecastRunNotFound) {
			return nil, ErrForecastNotFound
		}
		return nil, err
	}
	if s.store != nil && run.ReportKey != nil {
		url := s.store.PublicURL(*run.ReportKey)
		run.ReportURL = &url
	}
	return run, nil
}

func (s *forecastService) ListResults(ctx context.Context, id int) ([]models.CompetitorForecast, error) {
	run, err := s.GetForecast(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != models.ForecastStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", ErrForecastNotReady, run.Status)
	}
	results, err := s.forecastRepo.ListResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *forecastService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *forecastService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
