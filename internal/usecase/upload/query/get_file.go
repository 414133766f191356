package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// GetFileInput はファイル取得の入力を定義します
type GetFileInput struct {
	PublicID string
}

// GetFileOutput はファイル取得の出力を定義します
// Object.Body は呼び出し側で Close します
type GetFileOutput struct {
	File   *entity.FileRecord
	Object *service.Object
}

// GetFileQuery は完了済みファイルの内容を取得するクエリです
type GetFileQuery struct {
	fileRepo  repository.FileRecordRepository
	blobStore service.BlobStore
	keyPrefix string
}

// NewGetFileQuery は新しいGetFileQueryを作成します
func NewGetFileQuery(
	fileRepo repository.FileRecordRepository,
	blobStore service.BlobStore,
	keyPrefix string,
) *GetFileQuery {
	return &GetFileQuery{
		fileRepo:  fileRepo,
		blobStore: blobStore,
		keyPrefix: keyPrefix,
	}
}

// Execute は公開IDでファイルを検索し、内容のストリームを返します
func (q *GetFileQuery) Execute(ctx context.Context, input GetFileInput) (*GetFileOutput, error) {
	// 1. 公開IDの解釈（不正な形式は存在しないものとして扱う）
	id, err := uuid.Parse(input.PublicID)
	if err != nil {
		return nil, apperror.NewNotFoundError("file")
	}

	// 2. レコード取得
	file, err := q.fileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.IsAvailable() {
		return nil, apperror.NewForbiddenError("file is not yet available")
	}

	// 3. 内容取得。完了済みなのに取得できないのはデータ整合性の問題
	key := valueobject.NewStorageKey(q.keyPrefix, file.ContentHash)
	obj, err := q.blobStore.GetObject(ctx, key.Value())
	if err != nil {
		logger.Error(ctx, "finished file content is unavailable",
			"public_id", file.ID,
			"content_hash", file.ContentHash.Value(),
			"storage_key", key.Value(),
			"error", err,
		)
		return nil, apperror.NewRetrievalError(err)
	}

	return &GetFileOutput{
		File:   file,
		Object: obj,
	}, nil
}
