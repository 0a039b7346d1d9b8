package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/Dosada05/tournament-forecast/repositories"
	"github.com/Dosada05/tournament-forecast/storage"
)

type fakeFixtureRepo struct {
	fixtures []models.Fixture
}

func (r *fakeFixtureRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, fixtures []models.Fixture) error {
	r.fixtures = append(r.fixtures, fixtures...)
	return nil
}

func (r *fakeFixtureRepo) ListAll(context.Context) ([]models.Fixture, error) {
	return r.fixtures, nil
}

func (r *fakeFixtureRepo) DeleteAll(context.Context, repositories.SQLExecutor) error {
	r.fixtures = nil
	return nil
}

type fakeParamRepo struct {
	table *ratemodel.Table
}

func (r *fakeParamRepo) LoadTable(context.Context) (*ratemodel.Table, error) {
	if r.table == nil {
		return nil, repositories.ErrRateParamsEmpty
	}
	return r.table, nil
}

func (r *fakeParamRepo) ReplaceAll(_ context.Context, _ repositories.SQLExecutor, intercept, homeAdvantage float64, params []ratemodel.TeamParams) error {
	table, err := ratemodel.NewTable(intercept, homeAdvantage, params)
	if err != nil {
		return err
	}
	r.table = table
	return nil
}

type fakeForecastRepo struct {
	mu      sync.Mutex
	nextID  int
	runs    map[int]*models.ForecastRun
	results map[int][]models.CompetitorForecast
	saveErr error
}

func newFakeForecastRepo() *fakeForecastRepo {
	return &fakeForecastRepo{
		runs:    make(map[int]*models.ForecastRun),
		results: make(map[int][]models.CompetitorForecast),
	}
}

func (r *fakeForecastRepo) CreateRun(_ context.Context, _ repositories.SQLExecutor, run *models.ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	run.ID = r.nextID
	run.Status = models.ForecastStatusRunning
	run.CreatedAt = time.Now()
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *fakeForecastRepo) GetRunByID(_ context.Context, id int) (*models.ForecastRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repositories.ErrForecastRunNotFound
	}
	out := *run
	return &out, nil
}

func (r *fakeForecastRepo) CompleteRun(_ context.Context, _ repositories.SQLExecutor, id int, reportKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.Status != models.ForecastStatusRunning {
		return repositories.ErrForecastRunNotRunning
	}
	now := time.Now()
	run.Status = models.ForecastStatusCompleted
	run.ReportKey = reportKey
	run.CompletedAt = &now
	return nil
}

func (r *fakeForecastRepo) FailRun(_ context.Context, id int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.Status != models.ForecastStatusRunning {
		return repositories.ErrForecastRunNotRunning
	}
	run.Status = models.ForecastStatusFailed
	run.ErrorMessage = &message
	return nil
}

func (r *fakeForecastRepo) SaveResults(_ context.Context, _ repositories.SQLExecutor, runID int, rows []models.CompetitorForecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, exists := r.results[runID]; exists {
		return repositories.ErrForecastResultsExist
	}
	stored := make([]models.CompetitorForecast, len(rows))
	copy(stored, rows)
	for i := range stored {
		stored[i].RunID = runID
	}
	r.results[runID] = stored
	return nil
}

func (r *fakeForecastRepo) ListResults(_ context.Context, runID int) ([]models.CompetitorForecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[runID], nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if s.fail {
		return nil, errors.New("bucket unavailable")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: s.PublicURL(key)}, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return storage.JoinPublicURL("https://reports.example.com", key)
}

func (s *fakeStore) object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

type fakeHub struct {
	mu       sync.Mutex
	messages map[string][]brackets.WebSocketMessage
}

func newFakeHub() *fakeHub {
	return &fakeHub{messages: make(map[string][]brackets.WebSocketMessage)}
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[roomID] = append(h.messages[roomID], message.(brackets.WebSocketMessage))
}

func (h *fakeHub) types(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.messages[roomID]))
	for _, m := range h.messages[roomID] {
		out = append(out, m.Type)
	}
	return out
}

// twoGroupFixtures builds groups A and B of four with a single round robin.
func twoGroupFixtures() ([]models.Fixture, *ratemodel.Table) {
	start := time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC)
	var fixtures []models.Fixture
	var params []ratemodel.TeamParams
	for g, label := range []string{"A", "B"} {
		teams := make([]string, 4)
		for i := range teams {
			teams[i] = fmt.Sprintf("%s%d", label, i+1)
			params = append(params, ratemodel.TeamParams{
				Team:    teams[i],
				Attack:  0.1 * float64(3-i),
				Defence: 0.05 * float64(i+g),
			})
		}
		groupFixtures, err := brackets.GenerateRoundRobin(label, teams, 1, start, true)
		if err != nil {
			panic(err)
		}
		fixtures = append(fixtures, groupFixtures...)
	}
	table, err := ratemodel.NewTable(0.1, 0.25, params)
	if err != nil {
		panic(err)
	}
	return fixtures, table
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
