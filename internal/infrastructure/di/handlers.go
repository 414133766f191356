package di

import (
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/handler"
)

// Handlers はアプリケーションのハンドラーを保持します
type Handlers struct {
	Health *handler.HealthHandler
	File   *handler.FileHandler
}

// NewHandlers はContainerから全てのハンドラーを初期化します
func NewHandlers(c *Container) *Handlers {
	// Health Handler
	healthHandler := handler.NewHealthHandler()
	for _, check := range c.HealthChecks {
		healthHandler.RegisterChecker(check.Name, handler.HealthCheckerFunc(check.Check))
	}

	// File Handler
	fileHandler := handler.NewFileHandler(
		c.Upload.UploadSmallFile,
		c.Upload.InitiateLargeUpload,
		c.Upload.UploadPart,
		c.Upload.FinishUpload,
		c.Upload.GetFile,
		c.Upload.GetUploadStatus,
		c.config.Upload.MaxSmallFileSize,
	)

	return &Handlers{
		Health: healthHandler,
		File:   fileHandler,
	}
}
