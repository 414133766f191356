package router

import (
	"github.com/labstack/echo/v4"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/di"
)

// Router はルート定義を管理します
type Router struct {
	echo        *echo.Echo
	handlers    *di.Handlers
	middlewares *di.Middlewares
}

// NewRouter は新しいRouterを作成します
func NewRouter(e *echo.Echo, handlers *di.Handlers, middlewares *di.Middlewares) *Router {
	return &Router{
		echo:        e,
		handlers:    handlers,
		middlewares: middlewares,
	}
}

// Setup は全てのルートを設定します
func (r *Router) Setup() {
	r.setupHealthRoutes()
	r.setupFileRoutes()
}

// setupHealthRoutes はヘルスチェックルートを設定します
func (r *Router) setupHealthRoutes() {
	if r.handlers.Health == nil {
		return
	}
	r.echo.GET("/health", r.handlers.Health.Check)
	r.echo.GET("/ready", r.handlers.Health.Ready)
}

// setupFileRoutes はアップロード・取得ルートを設定します
func (r *Router) setupFileRoutes() {
	if r.handlers.File == nil {
		return
	}

	uploadLimit := r.middlewares.RateLimit.ByIP(r.middlewares.UploadLimit)
	downloadLimit := r.middlewares.RateLimit.ByIP(r.middlewares.DownloadLimit)

	files := r.echo.Group("/files")

	// Upload routes
	files.POST("/small", r.handlers.File.UploadSmall, uploadLimit)
	files.POST("/large", r.handlers.File.InitiateLarge, uploadLimit)
	files.POST("/large/part", r.handlers.File.UploadPart, uploadLimit)
	files.PATCH("/large/finish", r.handlers.File.FinishUpload, uploadLimit)
	files.GET("/large/:contentHash", r.handlers.File.GetUploadStatus, uploadLimit)

	// Retrieval
	files.GET("/:publicId", r.handlers.File.Download, downloadLimit)
}
