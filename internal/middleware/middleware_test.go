package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technosupport/arena-watch/internal/middleware"
	"github.com/technosupport/arena-watch/internal/ratelimit"
	"github.com/technosupport/arena-watch/internal/tokens"
)

// Mock Token Validator
type MockTokenValidator struct{}

func (m MockTokenValidator) ValidateToken(token string) (*tokens.Claims, error) {
	switch token {
	case "valid-operator":
		c := &tokens.Claims{Role: tokens.Operator}
		c.Subject = "arena-desk"
		c.ID = "jti-1"
		return c, nil
	case "valid-unchecked":
		c := &tokens.Claims{Role: tokens.Operator}
		c.ID = "boom"
		return c, nil
	case "valid-viewer":
		return &tokens.Claims{Role: tokens.Viewer}, nil
	}
	return nil, tokens.ErrInvalidToken
}

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestJWTAuthMiddleware_Success(t *testing.T) {
	mw := middleware.NewJWTAuth(MockTokenValidator{}, nil, tokens.Operator)

	var got *middleware.AuthContext
	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer valid-operator")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "arena-desk", got.Subject)
	assert.Equal(t, "jti-1", got.TokenID)
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	mw := middleware.NewJWTAuth(MockTokenValidator{}, nil, tokens.Operator)
	handler := mw.Middleware(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer valid-viewer", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			assert.Contains(t, w.Body.String(), `"code"`)
		})
	}
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS([]string{"http://dash.local"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "http://dash.local")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://dash.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	middleware.CORS(nil)(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	handler := middleware.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Get("/api/v1/uploads/{id}", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/uploads/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_PerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	limiter := ratelimit.NewLimiter(rdb, "salt")
	cfg := ratelimit.LimitConfig{Rate: 2, WindowMs: int(time.Second / time.Millisecond)}
	handler := middleware.RateLimit(limiter, "uploads", cfg)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// a different client has its own window
	other := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_RedisDown_FailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	handler := middleware.RateLimit(ratelimit.NewLimiter(rdb, ""), "uploads",
		ratelimit.LimitConfig{Rate: 1, WindowMs: 1000})(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	handler := middleware.RateLimit(nil, "uploads", ratelimit.LimitConfig{})(http.HandlerFunc(okHandler))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "boom" {
		return false, errors.New("redis down")
	}
	return r[jti], nil
}

func (r revokedSet) Revoke(_ context.Context, jti string, _ time.Duration) error {
	r[jti] = true
	return nil
}

func TestJWTAuthMiddleware_Revoked(t *testing.T) {
	revoked := revokedSet{}
	mw := middleware.NewJWTAuth(MockTokenValidator{}, revoked, tokens.Operator)
	handler := mw.Middleware(http.HandlerFunc(okHandler))

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("valid-operator"))
	require.NoError(t, revoked.Revoke(context.Background(), "jti-1", time.Minute))
	assert.Equal(t, http.StatusUnauthorized, call("valid-operator"))

	// lookup failures fail closed
	assert.Equal(t, http.StatusUnauthorized, call("valid-unchecked"))
}
