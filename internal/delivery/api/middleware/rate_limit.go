package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
)

const headerRateLimitRemaining = "X-RateLimit-Remaining"

// RateLimitMiddleware throttles requests per client IP.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
	enabled bool
	logger  *slog.Logger
}

// NewRateLimitMiddleware is the constructor for RateLimitMiddleware.
func NewRateLimitMiddleware(limiter service.RateLimiter, cfg *config.Config, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		enabled: cfg.RateLimit.Enabled,
		logger:  logger,
	}
}

// Limit returns a middleware enforcing rule under the given bucket name.
func (m *RateLimitMiddleware) Limit(name string, rule config.RateLimitRule) echo.MiddlewareFunc {
	policy := service.RateLimitPolicy{Limit: rule.Limit, Window: rule.Window}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !m.enabled {
			return next
		}

		return func(c echo.Context) error {
			ctx := c.Request().Context()

			decision, err := m.limiter.Allow(ctx, name+":"+c.RealIP(), policy)
			if err != nil {
				// Fail open
				deliverycontext.GetLoggerOrDefault(ctx, m.logger).Warn("Rate limiter unavailable", slog.Any("error", err))

				return next(c)
			}

			c.Response().Header().Set(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(max(seconds, 1)))

				return domainerrors.ErrRateLimited
			}

			return next(c)
		}
	}
}
