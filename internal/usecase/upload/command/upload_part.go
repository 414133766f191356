package command

import (
	"bytes"
	"context"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// UploadPartInput はパートアップロードの入力を定義します
type UploadPartInput struct {
	ContentHash string
	UploadID    string
	PartNumber  int
	Data        []byte
}

// UploadPartOutput はパートアップロードの出力を定義します
type UploadPartOutput struct {
	Part *entity.UploadPart
}

// UploadPartCommand はパートアップロードコマンドです
// 同じパート番号の再送は上書きされます
type UploadPartCommand struct {
	fileRepo  repository.FileRecordRepository
	partRepo  repository.UploadPartRepository
	blobStore service.BlobStore
	keyPrefix string
}

// NewUploadPartCommand は新しいUploadPartCommandを作成します
func NewUploadPartCommand(
	fileRepo repository.FileRecordRepository,
	partRepo repository.UploadPartRepository,
	blobStore service.BlobStore,
	keyPrefix string,
) *UploadPartCommand {
	return &UploadPartCommand{
		fileRepo:  fileRepo,
		partRepo:  partRepo,
		blobStore: blobStore,
		keyPrefix: keyPrefix,
	}
}

// Execute はパートをBlobストアへ送り、返却されたETagを台帳に記録します
func (c *UploadPartCommand) Execute(ctx context.Context, input UploadPartInput) (*UploadPartOutput, error) {
	// 1. 入力検証
	hash, err := valueobject.NewContentHash(input.ContentHash)
	if err != nil {
		return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
			{Field: "contentHash", Message: "must be a lowercase hex sha256 digest"},
		})
	}
	if err := entity.ValidatePartNumber(input.PartNumber); err != nil {
		return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
			{Field: "partNumber", Message: "must be between 1 and 10000"},
		})
	}
	size := int64(len(input.Data))
	if size == 0 || size > entity.MaxPartSize {
		return nil, apperror.NewValidationError(entity.ErrInvalidPartSize.Error(), []apperror.FieldError{
			{Field: "bytes", Message: "must be between 1 byte and 100MB"},
		})
	}

	// 2. セッション確認
	record, err := c.fileRepo.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if record.Finished {
		return nil, apperror.NewConflictError("upload is already finished")
	}
	if !record.HasUploadSession(input.UploadID) {
		return nil, apperror.NewNotFoundError("upload session")
	}

	// 3. Blobストアへ送信
	key := valueobject.NewStorageKey(c.keyPrefix, hash)
	etag, err := c.blobStore.UploadPart(ctx, key.Value(), input.UploadID, input.PartNumber, bytes.NewReader(input.Data), size)
	if err != nil {
		return nil, apperror.NewStoragePartError(err)
	}

	// 4. 台帳へ記録
	part, err := entity.NewUploadPart(input.UploadID, input.PartNumber, size, etag)
	if err != nil {
		return nil, apperror.NewStoragePartError(err)
	}

	stored, err := c.partRepo.Upsert(ctx, part)
	if err != nil {
		return nil, err
	}

	return &UploadPartOutput{Part: stored}, nil
}
