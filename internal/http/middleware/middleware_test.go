package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()

	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return s
}

func TestAuth(t *testing.T) {
	type testCase struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantUser   string
	}

	valid := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user-1"})
	guestSub := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "guest:dev-1"})

	tests := []testCase{
		{
			name:       "valid bearer token",
			headers:    map[string]string{"Authorization": "Bearer " + valid},
			wantStatus: http.StatusOK,
			wantUser:   "user-1",
		},
		{
			name:       "guest header",
			headers:    map[string]string{middleware.GuestHeader: "dev-42"},
			wantStatus: http.StatusOK,
			wantUser:   "guest:dev-42",
		},
		{
			name: "token wins over guest header",
			headers: map[string]string{
				"Authorization":        "Bearer " + valid,
				middleware.GuestHeader: "dev-42",
			},
			wantStatus: http.StatusOK,
			wantUser:   "user-1",
		},
		{
			name:       "expired token",
			headers:    map[string]string{"Authorization": "Bearer " + expired},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong signing key",
			headers:    map[string]string{"Authorization": "Bearer " + wrongKey},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token cannot claim a guest id",
			headers:    map[string]string{"Authorization": "Bearer " + guestSub},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth",
			headers:    map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no credentials",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string

			h := middleware.Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = middleware.UserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantUser, gotUser)
		})
	}
}

func TestAuth_DisabledWithoutSecret(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "user-1"})

	h := middleware.Auth(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer

	log := logger.NewWithWriter(&buf)

	h := chimw.RequestID(middleware.Logger(log)(middleware.Recovery(log)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}),
	)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sms", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), `"message":"panic recovered"`)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"request_id"`)
}
