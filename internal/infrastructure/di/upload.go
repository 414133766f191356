package di

import (
	uploadcmd "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/command"
	uploadqry "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/query"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/config"
)

// UploadUseCases はアップロード関連のUseCaseを保持します
type UploadUseCases struct {
	// Commands
	UploadSmallFile     *uploadcmd.UploadSmallFileCommand
	InitiateLargeUpload *uploadcmd.InitiateLargeUploadCommand
	UploadPart          *uploadcmd.UploadPartCommand
	FinishUpload        *uploadcmd.FinishUploadCommand

	// Queries
	GetFile         *uploadqry.GetFileQuery
	GetUploadStatus *uploadqry.GetUploadStatusQuery
}

// NewUploadUseCases は新しいUploadUseCasesを作成します
func NewUploadUseCases(c *Container, cfg *config.Config) *UploadUseCases {
	prefix := cfg.Storage.KeyPrefix

	return &UploadUseCases{
		UploadSmallFile:     uploadcmd.NewUploadSmallFileCommand(c.FileRecordRepo, c.BlobStore, prefix, cfg.Upload.MaxSmallFileSize),
		InitiateLargeUpload: uploadcmd.NewInitiateLargeUploadCommand(c.FileRecordRepo, c.UploadPartRepo, c.BlobStore, prefix),
		UploadPart:          uploadcmd.NewUploadPartCommand(c.FileRecordRepo, c.UploadPartRepo, c.BlobStore, prefix),
		FinishUpload: uploadcmd.NewFinishUploadCommand(
			c.FileRecordRepo,
			c.UploadPartRepo,
			c.BlobStore,
			c.TxManager,
			prefix,
			cfg.Upload.FinishClaimTTL,
		),

		GetFile:         uploadqry.NewGetFileQuery(c.FileRecordRepo, c.BlobStore, prefix),
		GetUploadStatus: uploadqry.NewGetUploadStatusQuery(c.FileRecordRepo, c.UploadPartRepo),
	}
}
