package di

import (
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/cache"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/middleware"
)

// Middlewares はアプリケーションのミドルウェアを保持します
type Middlewares struct {
	RateLimit *middleware.RateLimitMiddleware

	// ルート種別ごとのレート制限設定
	UploadLimit   cache.RateLimitConfig
	DownloadLimit cache.RateLimitConfig
}

// NewMiddlewares はContainerから全てのミドルウェアを初期化します
func NewMiddlewares(c *Container) *Middlewares {
	var limiter middleware.Limiter
	if c.RateLimiter != nil {
		limiter = c.RateLimiter
	}

	return &Middlewares{
		RateLimit: middleware.NewRateLimitMiddleware(limiter),
		UploadLimit: cache.RateLimitConfig{
			Type:     cache.RateLimitTypeUpload,
			Requests: c.config.RateLimit.UploadRequests,
			Window:   c.config.RateLimit.UploadWindow,
		},
		DownloadLimit: cache.RateLimitConfig{
			Type:     cache.RateLimitTypeDownload,
			Requests: c.config.RateLimit.DownloadRequests,
			Window:   c.config.RateLimit.DownloadWindow,
		},
	}
}
