package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/middleware"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecastService struct {
	startErr   error
	gotInput   services.ForecastOverrides
	gotUserID  *int
	runs       map[int]*models.ForecastRun
	results    map[int][]models.CompetitorForecast
	resultsErr error
}

func (f *fakeForecastService) StartForecast(_ context.Context, in services.ForecastOverrides, userID *int) (*models.ForecastRun, error) {
	f.gotInput = in
	f.gotUserID = userID
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &models.ForecastRun{ID: 7, Status: models.ForecastStatusRunning, Trials: 10000}, nil
}

func (f *fakeForecastService) GetForecast(_ context.Context, id int) (*models.ForecastRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, services.ErrForecastNotFound
	}
	return run, nil
}

func (f *fakeForecastService) ListResults(_ context.Context, id int) ([]models.CompetitorForecast, error) {
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	rows, ok := f.results[id]
	if !ok {
		return nil, services.ErrForecastNotFound
	}
	return rows, nil
}

func (f *fakeForecastService) Shutdown(context.Context) error { return nil }

type fakePreviewService struct {
	gotNeutral bool
}

func (f *fakePreviewService) FixturePreviews(context.Context) ([]models.MatchPreview, error) {
	return []models.MatchPreview{{Home: "Brazil", Away: "Serbia", HomeWin: 0.6, Draw: 0.25, AwayWin: 0.15}}, nil
}

func (f *fakePreviewService) MatchPreview(_ context.Context, home, away string, neutral bool) (*models.MatchPreview, error) {
	f.gotNeutral = neutral
	if home == "Atlantis" {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownCompetitor, home)
	}
	return &models.MatchPreview{Home: home, Away: away, Neutral: neutral, HomeWin: 0.5, Draw: 0.3, AwayWin: 0.2}, nil
}

func newRouter(fs services.ForecastService, ps services.PreviewService) http.Handler {
	fh := NewForecastHandler(fs)
	ph := NewPreviewHandler(ps)
	r := chi.NewRouter()
	r.Post("/forecasts", fh.StartForecast)
	r.Get("/forecasts/{forecastID}", fh.GetForecast)
	r.Get("/forecasts/{forecastID}/results", fh.ListResults)
	r.Get("/fixtures/previews", ph.ListFixturePreviews)
	r.Get("/matches/preview", ph.GetMatchPreview)
	return r
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestStartForecast(t *testing.T) {
	fs := &fakeForecastService{}
	router := newRouter(fs, &fakePreviewService{})

	t.Run("empty body uses defaults", func(t *testing.T) {
		rec, body := do(t, router, httptest.NewRequest(http.MethodPost, "/forecasts", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, body, "forecast")
		assert.Nil(t, fs.gotInput.Trials)
		assert.Nil(t, fs.gotUserID)
	})

	t.Run("overrides and user from token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/forecasts", strings.NewReader(`{"trials": 500, "seed": 18446744073709551615}`))
		req = req.WithContext(middleware.WithClaims(req.Context(), jwt.MapClaims{"user_id": float64(3), "role": "analyst"}))
		rec, _ := do(t, router, req)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.NotNil(t, fs.gotInput.Trials)
		assert.Equal(t, 500, *fs.gotInput.Trials)
		require.NotNil(t, fs.gotInput.Seed)
		assert.Equal(t, uint64(18446744073709551615), *fs.gotInput.Seed)
		require.NotNil(t, fs.gotUserID)
		assert.Equal(t, 3, *fs.gotUserID)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec, body := do(t, router, httptest.NewRequest(http.MethodPost, "/forecasts", strings.NewReader(`{"rounds": 3}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, string(body["error"]), "unknown key")
	})

	statusCases := []struct {
		err  error
		want int
	}{
		{services.ErrForecastInProgress, http.StatusConflict},
		{fmt.Errorf("%w: bad bracket", services.ErrForecastInvalid), http.StatusUnprocessableEntity},
		{services.ErrModelNotFitted, http.StatusUnprocessableEntity},
		{services.ErrFixturesMissing, http.StatusUnprocessableEntity},
		{services.ErrServiceShuttingDown, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range statusCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			fs.startErr = tc.err
			defer func() { fs.startErr = nil }()
			rec, _ := do(t, router, httptest.NewRequest(http.MethodPost, "/forecasts", nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGetForecastAndResults(t *testing.T) {
	fs := &fakeForecastService{
		runs: map[int]*models.ForecastRun{1: {ID: 1, Status: models.ForecastStatusCompleted}},
		results: map[int][]models.CompetitorForecast{1: {
			{Competitor: "Brazil", RoundLabels: []string{"R16", "QF", "SF", "F", "W"}, RoundProbs: []float64{0.9, 0.7, 0.5, 0.3, 0.2}},
		}},
	}
	router := newRouter(fs, &fakePreviewService{})

	rec, body := do(t, router, httptest.NewRequest(http.MethodGet, "/forecasts/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var run models.ForecastRun
	require.NoError(t, json.Unmarshal(body["forecast"], &run))
	assert.Equal(t, models.ForecastStatusCompleted, run.Status)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/forecasts/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/forecasts/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, router, httptest.NewRequest(http.MethodGet, "/forecasts/1/results", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []models.CompetitorForecast
	require.NoError(t, json.Unmarshal(body["results"], &rows))
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.2, rows[0].ProbChampion(), 1e-12)

	fs.resultsErr = services.ErrForecastNotReady
	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/forecasts/1/results", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPreviews(t *testing.T) {
	ps := &fakePreviewService{}
	router := newRouter(&fakeForecastService{}, ps)

	rec, body := do(t, router, httptest.NewRequest(http.MethodGet, "/fixtures/previews", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "previews")

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/matches/preview?home=Japan&away=Ghana", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ps.gotNeutral)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/matches/preview?home=Japan&away=Ghana&neutral=false", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ps.gotNeutral)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/matches/preview?home=Japan", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/matches/preview?home=Japan&away=Ghana&neutral=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/matches/preview?home=Atlantis&away=Ghana", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeForecastWs(t *testing.T) {
	hub := brackets.NewHub()
	go hub.Run()

	fs := &fakeForecastService{runs: map[int]*models.ForecastRun{5: {ID: 5, Status: models.ForecastStatusRunning}}}
	wsHandler := NewWebSocketHandler(hub, fs)
	r := chi.NewRouter()
	r.Get("/ws/forecasts/{forecastID}", wsHandler.ServeForecastWs)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/forecasts/404")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/forecasts/5"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := brackets.ForecastRoom(5)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageForecastProgress,
		Payload: brackets.ForecastProgress{RunID: 5, Completed: 10, Total: 100},
		RoomID:  room,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string                    `json:"type"`
		Payload brackets.ForecastProgress `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, brackets.MessageForecastProgress, msg.Type)
	assert.Equal(t, 10, msg.Payload.Completed)
}

type fakeDatasetService struct {
	got string
}

func (f *fakeDatasetService) read(r io.Reader) (int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.got = string(b)
	if strings.Contains(f.got, "bad") {
		return 0, fmt.Errorf("%w: bad row", services.ErrValidationFailed)
	}
	return strings.Count(f.got, "\n"), nil
}

func (f *fakeDatasetService) ImportFixtures(_ context.Context, r io.Reader) (int, error) {
	return f.read(r)
}

func (f *fakeDatasetService) ImportGroups(_ context.Context, r io.Reader) (int, error) {
	return f.read(r)
}

func (f *fakeDatasetService) ImportRateParams(_ context.Context, r io.Reader) (int, error) {
	return f.read(r)
}

func TestDatasetImports(t *testing.T) {
	ds := &fakeDatasetService{}
	h := NewDatasetHandler(ds)
	r := chi.NewRouter()
	r.Put("/fixtures", h.ImportFixtures)
	r.Put("/rate-params", h.ImportRateParams)

	rec, body := do(t, r, httptest.NewRequest(http.MethodPut, "/fixtures", strings.NewReader("a\nb\n")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "2", string(body["fixtures"]))

	rec, body = do(t, r, httptest.NewRequest(http.MethodPut, "/rate-params", strings.NewReader("x\n")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "1", string(body["teams"]))

	rec, _ = do(t, r, httptest.NewRequest(http.MethodPut, "/fixtures", strings.NewReader("bad\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
