package command

import (
	"bytes"
	"context"
	"fmt"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// UploadSmallFileInput は一括アップロードの入力を定義します
type UploadSmallFileInput struct {
	Data     []byte
	MimeType string
}

// UploadSmallFileOutput は一括アップロードの出力を定義します
type UploadSmallFileOutput struct {
	File    *entity.FileRecord
	Created bool // false の場合は既存の完了済みレコード
}

// UploadSmallFileCommand は一括アップロードコマンドです
type UploadSmallFileCommand struct {
	fileRepo  repository.FileRecordRepository
	blobStore service.BlobStore
	keyPrefix string
	maxSize   int64
}

// NewUploadSmallFileCommand は新しいUploadSmallFileCommandを作成します
func NewUploadSmallFileCommand(
	fileRepo repository.FileRecordRepository,
	blobStore service.BlobStore,
	keyPrefix string,
	maxSize int64,
) *UploadSmallFileCommand {
	return &UploadSmallFileCommand{
		fileRepo:  fileRepo,
		blobStore: blobStore,
		keyPrefix: keyPrefix,
		maxSize:   maxSize,
	}
}

// Execute はファイルを一括で保存し完了済みレコードを返します
func (c *UploadSmallFileCommand) Execute(ctx context.Context, input UploadSmallFileInput) (*UploadSmallFileOutput, error) {
	// 1. 入力検証
	size := int64(len(input.Data))
	if size == 0 {
		return nil, apperror.NewValidationError("file is empty", []apperror.FieldError{
			{Field: "file", Message: "must not be empty"},
		})
	}
	if size > c.maxSize {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("file exceeds %d bytes; use the large file upload", c.maxSize), nil)
	}

	mimeType := valueobject.NewMimeTypeOrDefault(input.MimeType)
	hash := valueobject.ComputeContentHash(input.Data)
	key := valueobject.NewStorageKey(c.keyPrefix, hash)

	// 2. 完了済みなら保存しない
	existing, err := findRecord(ctx, c.fileRepo, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Finished {
		return &UploadSmallFileOutput{File: existing, Created: false}, nil
	}

	// 3. Blobストアへ保存
	if err := c.blobStore.PutObject(ctx, key.Value(), bytes.NewReader(input.Data), size, mimeType.Value()); err != nil {
		return nil, apperror.NewStorageWriteError(err)
	}

	// 4. 台帳へ登録（未完了レコードがあれば昇格）
	record, err := entity.NewFinishedFileRecord(hash, size, mimeType)
	if err != nil {
		return nil, apperror.NewValidationError(err.Error(), nil)
	}

	stored, err := c.fileRepo.CreateFinished(ctx, record)
	if err != nil {
		return nil, err
	}

	// 5. 昇格したレコードのマルチパートセッションを破棄
	if existing != nil && existing.CurrentUploadID() != "" {
		abortSession(ctx, c.blobStore, key, existing.CurrentUploadID())
	}

	return &UploadSmallFileOutput{File: stored, Created: true}, nil
}
