package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/cache"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// Limiter はレート制限の判定を行います
type Limiter interface {
	Allow(ctx context.Context, identifier string, config cache.RateLimitConfig) (*cache.RateLimitResult, error)
}

// RateLimitMiddleware はレート制限ミドルウェアを提供します
// limiter が nil の場合（Redis無効時）は制限しません
type RateLimitMiddleware struct {
	limiter Limiter
}

// NewRateLimitMiddleware は新しいRateLimitMiddlewareを作成します
func NewRateLimitMiddleware(limiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
	}
}

// ByIP はIPアドレスでレート制限するミドルウェアを返します
func (m *RateLimitMiddleware) ByIP(config cache.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m.limiter == nil || config.Requests <= 0 {
			return next
		}
		return func(c echo.Context) error {
			result, err := m.limiter.Allow(c.Request().Context(), c.RealIP(), config)
			if err != nil {
				// レート制限チェックに失敗した場合はリクエストを許可
				slog.Warn("rate limit check failed", "request_id", GetRequestID(c), "error", err)
				return next(c)
			}

			setRateLimitHeaders(c, config, result)

			if !result.Allowed {
				retryAfter := int(time.Until(result.RetryAt).Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				return apperror.NewTooManyRequestsError("rate limit exceeded")
			}

			return next(c)
		}
	}
}

// setRateLimitHeaders はレート制限ヘッダーを設定します
func setRateLimitHeaders(c echo.Context, config cache.RateLimitConfig, result *cache.RateLimitResult) {
	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Response().Header().Set("X-RateLimit-Reset", result.ResetAt.UTC().Format(time.RFC3339))
}
