package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/database"
)

var _ repository.UploadPartRepository = (*UploadPartRepository)(nil)

const uploadPartsTable = "upload_parts"

// UploadPartRepository はアップロードパーツリポジトリの実装です
type UploadPartRepository struct {
	*database.BaseRepository
}

// NewUploadPartRepository は新しいUploadPartRepositoryを作成します
func NewUploadPartRepository(txManager *database.TxManager) *UploadPartRepository {
	return &UploadPartRepository{
		BaseRepository: database.NewBaseRepository(txManager),
	}
}

// Upsert はアップロードパーツを登録します
// 同一 (upload_id, part_number) は上書きされます
func (r *UploadPartRepository) Upsert(ctx context.Context, part *entity.UploadPart) (*entity.UploadPart, error) {
	query, args, err := database.Builder.
		Insert(uploadPartsTable).
		Columns("upload_id", "part_number", "size", "etag", "uploaded_at").
		Values(part.UploadID, part.PartNumber, part.Size, part.ETag, part.UploadedAt).
		Suffix(`ON CONFLICT (upload_id, part_number) DO UPDATE
			SET size        = EXCLUDED.size,
				etag        = EXCLUDED.etag,
				uploaded_at = EXCLUDED.uploaded_at
			RETURNING upload_id, part_number, size, etag, uploaded_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert part: %w", err)
	}

	var (
		uploadID   string
		partNumber int32
		size       int64
		etag       string
		uploadedAt time.Time
	)
	if err := r.Querier(ctx).QueryRow(ctx, query, args...).Scan(&uploadID, &partNumber, &size, &etag, &uploadedAt); err != nil {
		return nil, r.HandleError(err)
	}

	return entity.ReconstructUploadPart(uploadID, int(partNumber), size, etag, uploadedAt), nil
}

// FindByUploadID はアップロードIDでパーツをパート番号順に取得します
func (r *UploadPartRepository) FindByUploadID(ctx context.Context, uploadID string) ([]*entity.UploadPart, error) {
	query, args, err := database.Builder.
		Select("upload_id", "part_number", "size", "etag", "uploaded_at").
		From(uploadPartsTable).
		Where(sq.Eq{"upload_id": uploadID}).
		OrderBy("part_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select parts: %w", err)
	}

	rows, err := r.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, r.HandleError(err)
	}
	defer rows.Close()

	parts := make([]*entity.UploadPart, 0)
	for rows.Next() {
		var (
			id         string
			partNumber int32
			size       int64
			etag       string
			uploadedAt time.Time
		)
		if err := rows.Scan(&id, &partNumber, &size, &etag, &uploadedAt); err != nil {
			return nil, r.HandleError(err)
		}
		parts = append(parts, entity.ReconstructUploadPart(id, int(partNumber), size, etag, uploadedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, r.HandleError(err)
	}

	return parts, nil
}

// DeleteByUploadID はアップロードIDで全パーツを削除します
func (r *UploadPartRepository) DeleteByUploadID(ctx context.Context, uploadID string) error {
	query, args, err := database.Builder.
		Delete(uploadPartsTable).
		Where(sq.Eq{"upload_id": uploadID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete parts: %w", err)
	}

	_, err = r.Querier(ctx).Exec(ctx, query, args...)
	return r.HandleError(err)
}
