package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Dosada05/tournament-forecast/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protected(roles ...models.UserRole) http.Handler {
	return Authenticate(testSecret)(RequireRole(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("X-User-ID", strconv.Itoa(id))
		w.WriteHeader(http.StatusOK)
	})))
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": 1, "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"viewer", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 2, "role": "viewer", "exp": exp}), http.StatusForbidden},
		{"unknown role", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 2, "role": "root", "exp": exp}), http.StatusForbidden},
		{"analyst", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 3, "role": "analyst", "exp": exp}), http.StatusOK},
		{"admin", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "4", "role": "admin", "exp": exp}), http.StatusOK},
	}

	handler := protected(models.RoleAnalyst, models.RoleAdmin)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/forecasts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/forecasts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(models.RoleAdmin).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	assert.Error(t, err)

	id, err := GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": float64(12)}))
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": 1.5}))
	assert.Error(t, err)

	_, err = GetUserIDFromContext(WithClaims(context.Background(), jwt.MapClaims{"user_id": float64(-1)}))
	assert.Error(t, err)
}
