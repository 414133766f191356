package command

import (
	"context"
	"time"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// FinishUploadInput はマルチパートアップロード完了の入力を定義します
type FinishUploadInput struct {
	ContentHash string
	UploadID    string
	Parts       []entity.PartRef
}

// FinishUploadOutput はマルチパートアップロード完了の出力を定義します
type FinishUploadOutput struct {
	File *entity.FileRecord
}

// FinishUploadCommand はマルチパートアップロード完了コマンドです
type FinishUploadCommand struct {
	fileRepo  repository.FileRecordRepository
	partRepo  repository.UploadPartRepository
	blobStore service.BlobStore
	txManager repository.TransactionManager
	keyPrefix string
	claimTTL  time.Duration
}

// NewFinishUploadCommand は新しいFinishUploadCommandを作成します
func NewFinishUploadCommand(
	fileRepo repository.FileRecordRepository,
	partRepo repository.UploadPartRepository,
	blobStore service.BlobStore,
	txManager repository.TransactionManager,
	keyPrefix string,
	claimTTL time.Duration,
) *FinishUploadCommand {
	return &FinishUploadCommand{
		fileRepo:  fileRepo,
		partRepo:  partRepo,
		blobStore: blobStore,
		txManager: txManager,
		keyPrefix: keyPrefix,
		claimTTL:  claimTTL,
	}
}

// Execute はパート一覧を検証してオブジェクトを組み立て、レコードを完了状態にします
// 完了済みのレコードに対する再実行はそのレコードを返します
func (c *FinishUploadCommand) Execute(ctx context.Context, input FinishUploadInput) (*FinishUploadOutput, error) {
	// 1. 入力検証
	hash, err := valueobject.NewContentHash(input.ContentHash)
	if err != nil {
		return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
			{Field: "contentHash", Message: "must be a lowercase hex sha256 digest"},
		})
	}
	if input.UploadID == "" {
		return nil, apperror.NewValidationError("uploadId is required", []apperror.FieldError{
			{Field: "uploadId", Message: "required"},
		})
	}

	// 2. レコード確認
	record, err := c.fileRepo.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if record.Finished {
		return &FinishUploadOutput{File: record}, nil
	}
	if !record.HasUploadSession(input.UploadID) {
		return nil, apperror.NewNotFoundError("upload session")
	}

	// 3. 完了処理の権利を取得
	claimed, err := c.fileRepo.ClaimFinish(ctx, input.UploadID, c.claimTTL)
	if err != nil {
		if apperror.IsNotFound(err) {
			// 取得までの間に他の完了処理が終わった
			if latest, findErr := c.fileRepo.FindByID(ctx, record.ID); findErr == nil && latest.Finished {
				return &FinishUploadOutput{File: latest}, nil
			}
		}
		return nil, err
	}

	file, err := c.complete(ctx, hash, claimed, input)
	if err != nil {
		c.release(ctx, input.UploadID)
		return nil, err
	}
	return &FinishUploadOutput{File: file}, nil
}

func (c *FinishUploadCommand) complete(ctx context.Context, hash valueobject.ContentHash, record *entity.FileRecord, input FinishUploadInput) (*entity.FileRecord, error) {
	// 4. マニフェスト検証
	acknowledged, err := c.partRepo.FindByUploadID(ctx, input.UploadID)
	if err != nil {
		return nil, err
	}

	manifest, err := entity.BuildCompletionManifest(record, acknowledged, input.Parts)
	if err != nil {
		return nil, apperror.NewInvalidManifestError(err.Error())
	}

	completed := make([]service.CompletedPart, len(manifest))
	for i, p := range manifest {
		completed[i] = service.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	// 5. Blobストアで組み立て
	key := valueobject.NewStorageKey(c.keyPrefix, hash)
	if err := c.blobStore.CompleteMultipartUpload(ctx, key.Value(), input.UploadID, completed); err != nil {
		// 以前の完了処理がBlobストアでは成功していた場合は台帳を追従させる
		info, statErr := c.blobStore.StatObject(ctx, key.Value())
		if statErr != nil || info.Size != record.Size {
			return nil, apperror.NewStorageCompletionError(err)
		}
		logger.Warn(ctx, "reconciling finished upload with existing object",
			"public_id", record.ID,
			"content_hash", hash.Value(),
			"upload_id", input.UploadID,
			"error", err,
		)
	}

	// 6. 台帳を完了状態に
	var finished *entity.FileRecord
	err = c.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		finished, txErr = c.fileRepo.MarkFinished(ctx, record.ID)
		if txErr != nil {
			return txErr
		}
		return c.partRepo.DeleteByUploadID(ctx, input.UploadID)
	})
	if err != nil {
		return nil, err
	}

	return finished, nil
}

func (c *FinishUploadCommand) release(ctx context.Context, uploadID string) {
	ctx = context.WithoutCancel(ctx)
	if err := c.fileRepo.ReleaseFinish(ctx, uploadID); err != nil && !apperror.IsNotFound(err) {
		logger.Warn(ctx, "failed to release finish claim", "upload_id", uploadID, "error", err)
	}
}
