package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-secret"

// Сервисы не нужны: проверяемые запросы отклоняются до вызова сервисного слоя.
func newTestRouter() *chi.Mux {
	router := chi.NewRouter()
	SetupRoutes(
		router,
		handlers.NewForecastHandler(nil),
		handlers.NewPreviewHandler(nil),
		handlers.NewDatasetHandler(nil),
		handlers.NewWebSocketHandler(brackets.NewHub(), nil),
		secret,
	)
	return router
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSetupRoutes(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"start without token", http.MethodPost, "/forecasts", "", "", http.StatusUnauthorized},
		{"start as viewer", http.MethodPost, "/forecasts", bearer(t, "viewer"), "", http.StatusForbidden},
		{"start as analyst with bad body", http.MethodPost, "/forecasts", bearer(t, "analyst"), "{", http.StatusBadRequest},
		{"import fixtures as analyst", http.MethodPut, "/fixtures", bearer(t, "analyst"), "", http.StatusForbidden},
		{"import params without token", http.MethodPut, "/rate-params", "", "", http.StatusUnauthorized},
		{"bad forecast id", http.MethodGet, "/forecasts/abc", "", "", http.StatusBadRequest},
		{"bad results id", http.MethodGet, "/forecasts/0/results", "", "", http.StatusBadRequest},
		{"preview without params", http.MethodGet, "/matches/preview", "", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/tournaments", "", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSetupRoutes_CORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/forecasts", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
