package query

import (
	"context"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// GetUploadStatusInput はアップロード状況取得の入力を定義します
type GetUploadStatusInput struct {
	ContentHash string
}

// GetUploadStatusOutput はアップロード状況取得の出力を定義します
type GetUploadStatusOutput struct {
	File          *entity.FileRecord
	UploadedParts []*entity.UploadPart // パート番号の昇順。完了済みなら空
}

// GetUploadStatusQuery はアップロード状況取得クエリです
type GetUploadStatusQuery struct {
	fileRepo repository.FileRecordRepository
	partRepo repository.UploadPartRepository
}

// NewGetUploadStatusQuery は新しいGetUploadStatusQueryを作成します
func NewGetUploadStatusQuery(
	fileRepo repository.FileRecordRepository,
	partRepo repository.UploadPartRepository,
) *GetUploadStatusQuery {
	return &GetUploadStatusQuery{
		fileRepo: fileRepo,
		partRepo: partRepo,
	}
}

// Execute はコンテンツハッシュのアップロード状況を取得します
func (q *GetUploadStatusQuery) Execute(ctx context.Context, input GetUploadStatusInput) (*GetUploadStatusOutput, error) {
	hash, err := valueobject.NewContentHash(input.ContentHash)
	if err != nil {
		return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
			{Field: "contentHash", Message: "must be a lowercase hex sha256 digest"},
		})
	}

	file, err := q.fileRepo.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	var parts []*entity.UploadPart
	if !file.Finished {
		parts, err = q.partRepo.FindByUploadID(ctx, file.CurrentUploadID())
		if err != nil {
			return nil, err
		}
	}

	switch s := entity.ResolveUploadState(file, parts).(type) {
	case entity.StatePending:
		return &GetUploadStatusOutput{File: s.Record, UploadedParts: s.Parts}, nil
	default:
		return &GetUploadStatusOutput{File: file, UploadedParts: []*entity.UploadPart{}}, nil
	}
}
