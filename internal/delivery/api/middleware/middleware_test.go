package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gatekeeper/config"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	mockSvc "gatekeeper/internal/mocks/service"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc.def.ghi", token: "abc.def.ghi", ok: true},
		{header: "bearer abc", token: "abc", ok: true},
		{header: "Bearer   abc  ", token: "abc", ok: true},
		{header: "", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer ", ok: false},
		{header: "Basic abc", ok: false},
		{header: "abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := bearerToken(tt.header)
			if !tt.ok {
				assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func newRateLimitContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func rateLimitConfig(enabled bool) *config.Config {
	cfg := &config.Config{}
	cfg.RateLimit.Enabled = enabled

	return cfg
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRateLimit_Denied(t *testing.T) {
	limiter := mockSvc.NewMockRateLimiter(t)
	rule := config.RateLimitRule{Limit: 5, Window: time.Minute}
	limiter.On("Allow", mock.Anything, "home:198.51.100.7", service.RateLimitPolicy{Limit: 5, Window: time.Minute}).
		Return(service.RateLimitDecision{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil).Once()

	m := NewRateLimitMiddleware(limiter, rateLimitConfig(true), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, rec := newRateLimitContext()

	err := m.Limit("home", rule)(okHandler)(c)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)
	assert.Equal(t, "2", rec.Header().Get(echo.HeaderRetryAfter))
	assert.Equal(t, "0", rec.Header().Get(headerRateLimitRemaining))
}

func TestRateLimit_Allowed(t *testing.T) {
	limiter := mockSvc.NewMockRateLimiter(t)
	limiter.On("Allow", mock.Anything, "auth:198.51.100.7", mock.Anything).
		Return(service.RateLimitDecision{Allowed: true, Remaining: 3}, nil).Once()

	m := NewRateLimitMiddleware(limiter, rateLimitConfig(true), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, rec := newRateLimitContext()

	require.NoError(t, m.Limit("auth", config.RateLimitRule{Limit: 5, Window: time.Minute})(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get(headerRateLimitRemaining))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := mockSvc.NewMockRateLimiter(t)
	limiter.On("Allow", mock.Anything, mock.Anything, mock.Anything).
		Return(service.RateLimitDecision{}, errors.New("redis down")).Once()

	m := NewRateLimitMiddleware(limiter, rateLimitConfig(true), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, rec := newRateLimitContext()

	require.NoError(t, m.Limit("auth", config.RateLimitRule{Limit: 1, Window: time.Minute})(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_DisabledSkipsLimiter(t *testing.T) {
	// No expectations: any call fails the test.
	limiter := mockSvc.NewMockRateLimiter(t)

	m := NewRateLimitMiddleware(limiter, rateLimitConfig(false), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, rec := newRateLimitContext()

	require.NoError(t, m.Limit("home", config.RateLimitRule{Limit: 1, Window: time.Minute})(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "app error", err: errors.Wrap(domainerrors.ErrDuplicateUser, "ctx"), status: http.StatusBadRequest, code: "USER_ALREADY_EXISTS"},
		{name: "echo error", err: echo.ErrMethodNotAllowed, status: http.StatusMethodNotAllowed, code: "HTTP_ERROR"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
		{name: "joined unauthenticated", err: errors.Join(domainerrors.ErrUnauthenticated, domainerrors.ErrInvalidToken), status: http.StatusUnauthorized, code: "UNAUTHENTICATED"},
		{name: "username conflict", err: errors.Wrap(domainerrors.ErrUsernameConflict, "insert"), status: http.StatusConflict, code: "USERNAME_CONFLICT"},
		{name: "hash failure", err: errors.Join(domainerrors.ErrPasswordHashFailed, errors.New("oom")), status: http.StatusInternalServerError, code: "PASSWORD_HASH_FAILED"},
	}

	m := NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
			rec := httptest.NewRecorder()

			m.HandleHTTPError(tt.err, e.NewContext(req, rec))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
			assert.Contains(t, rec.Body.String(), `"status":false`)
			assert.NotContains(t, rec.Body.String(), "boom")
		})
	}
}
