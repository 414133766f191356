package command

import (
	"context"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// findRecord はコンテンツハッシュでレコードを検索します。未登録なら nil を返します
func findRecord(ctx context.Context, repo repository.FileRecordRepository, hash valueobject.ContentHash) (*entity.FileRecord, error) {
	record, err := repo.FindByContentHash(ctx, hash)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// resolveState はレコードと確認済みパートからアップロード状態を求めます
func resolveState(ctx context.Context, partRepo repository.UploadPartRepository, record *entity.FileRecord) (entity.UploadState, error) {
	if record == nil || record.Finished {
		return entity.ResolveUploadState(record, nil), nil
	}

	parts, err := partRepo.FindByUploadID(ctx, record.CurrentUploadID())
	if err != nil {
		return nil, err
	}
	return entity.ResolveUploadState(record, parts), nil
}

// abortSession はBlobストアのセッションを破棄します。失敗はログのみです
func abortSession(ctx context.Context, blobStore service.BlobStore, key valueobject.StorageKey, uploadID string) {
	ctx = context.WithoutCancel(ctx)
	if err := blobStore.AbortMultipartUpload(ctx, key.Value(), uploadID); err != nil {
		logger.Warn(ctx, "failed to abort multipart upload",
			"storage_key", key.Value(),
			"upload_id", uploadID,
			"error", err,
		)
	}
}
