package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/database"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

var _ repository.FileRecordRepository = (*FileRecordRepository)(nil)

const fileRecordsTable = "file_records"

var fileRecordColumns = []string{
	"id", "content_hash", "size", "mime_type", "upload_id", "finished", "created_at", "updated_at",
}

// FileRecordRepository はファイル台帳リポジトリのPostgreSQL実装です
type FileRecordRepository struct {
	*database.BaseRepository
}

// NewFileRecordRepository は新しいFileRecordRepositoryを作成します
func NewFileRecordRepository(txManager *database.TxManager) *FileRecordRepository {
	return &FileRecordRepository{
		BaseRepository: database.NewBaseRepository(txManager),
	}
}

// FindByID は公開IDでレコードを検索します
func (r *FileRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// FindByContentHash はコンテンツハッシュでレコードを検索します
func (r *FileRecordRepository) FindByContentHash(ctx context.Context, hash valueobject.ContentHash) (*entity.FileRecord, error) {
	return r.findOne(ctx, sq.Eq{"content_hash": hash.Value()})
}

// CreatePending は未完了レコードを挿入します
// content_hash が既に存在する場合は挿入せず既存レコードを返します
func (r *FileRecordRepository) CreatePending(ctx context.Context, record *entity.FileRecord) (*entity.FileRecord, bool, error) {
	query, args, err := database.Builder.
		Insert(fileRecordsTable).
		Columns(fileRecordColumns...).
		Values(r.values(record)...).
		Suffix("ON CONFLICT (content_hash) DO NOTHING RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build insert pending: %w", err)
	}

	created, err := r.scan(r.Querier(ctx).QueryRow(ctx, query, args...))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, r.HandleError(err)
	}

	// 競合に負けた場合は勝者のレコードを返す
	existing, err := r.FindByContentHash(ctx, record.ContentHash)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// CreateFinished は完了済みレコードを登録します
// 同一ハッシュの未完了レコードは完了状態へ昇格し、そのパートは破棄します
// 既に完了済みのレコードは変更せずにそのまま返します
func (r *FileRecordRepository) CreateFinished(ctx context.Context, record *entity.FileRecord) (*entity.FileRecord, error) {
	return database.WithTransactionResult(r.TxManager(), ctx, func(ctx context.Context) (*entity.FileRecord, error) {
		q := r.Querier(ctx)

		deleteQuery, deleteArgs, err := database.Builder.
			Delete(uploadPartsTable).
			Where(sq.Expr(
				"upload_id = (SELECT upload_id FROM "+fileRecordsTable+" WHERE content_hash = ? AND NOT finished)",
				record.ContentHash.Value(),
			)).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build delete parts: %w", err)
		}
		if _, err := q.Exec(ctx, deleteQuery, deleteArgs...); err != nil {
			return nil, r.HandleError(err)
		}

		query, args, err := database.Builder.
			Insert(fileRecordsTable).
			Columns(fileRecordColumns...).
			Values(r.values(record)...).
			Suffix(`ON CONFLICT (content_hash) DO UPDATE
				SET finished        = TRUE,
					upload_id       = NULL,
					finishing_until = NULL,
					size            = EXCLUDED.size,
					updated_at      = EXCLUDED.updated_at
				WHERE NOT ` + fileRecordsTable + `.finished
				RETURNING ` + columnList()).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build upsert finished: %w", err)
		}

		stored, err := r.scan(q.QueryRow(ctx, query, args...))
		if err != nil {
			// 完了済みレコードは更新しないため既存の行を返す
			if errors.Is(err, pgx.ErrNoRows) {
				return r.FindByContentHash(ctx, record.ContentHash)
			}
			return nil, r.HandleError(err)
		}
		return stored, nil
	})
}

// MarkFinished はレコードを完了状態にします
// 既に完了している場合はそのまま返します
func (r *FileRecordRepository) MarkFinished(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	query, args, err := database.Builder.
		Update(fileRecordsTable).
		Set("finished", true).
		Set("upload_id", nil).
		Set("finishing_until", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "finished": false}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build mark finished: %w", err)
	}

	record, err := r.scan(r.Querier(ctx).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.FindByID(ctx, id)
	}
	if err != nil {
		return nil, r.HandleError(err)
	}
	return record, nil
}

// ClaimFinish は完了処理の権利を取得します
// 他の完了処理が期限内で実行中であれば Conflict を返します
func (r *FileRecordRepository) ClaimFinish(ctx context.Context, uploadID string, ttl time.Duration) (*entity.FileRecord, error) {
	query, args, err := database.Builder.
		Update(fileRecordsTable).
		Set("finishing_until", sq.Expr("NOW() + make_interval(secs => ?)", ttl.Seconds())).
		Where(sq.Eq{"upload_id": uploadID, "finished": false}).
		Where(sq.Or{
			sq.Eq{"finishing_until": nil},
			sq.Expr("finishing_until < NOW()"),
		}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim finish: %w", err)
	}

	record, err := r.scan(r.Querier(ctx).QueryRow(ctx, query, args...))
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, r.HandleError(err)
	}

	// 取得できなかった理由を判別する
	if _, err := r.findOne(ctx, sq.Eq{"upload_id": uploadID}); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("upload session")
		}
		return nil, err
	}
	return nil, apperror.NewConflictError("upload is already being finished")
}

// ReleaseFinish は完了処理の権利を解放します
func (r *FileRecordRepository) ReleaseFinish(ctx context.Context, uploadID string) error {
	query, args, err := database.Builder.
		Update(fileRecordsTable).
		Set("finishing_until", nil).
		Where(sq.Eq{"upload_id": uploadID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release finish: %w", err)
	}

	_, err = r.Querier(ctx).Exec(ctx, query, args...)
	return r.HandleError(err)
}

// CountPendingOlderThan は指定時刻より前に作成された未完了レコード数を返します
func (r *FileRecordRepository) CountPendingOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := database.Builder.
		Select("COUNT(*)").
		From(fileRecordsTable).
		Where(sq.Eq{"finished": false}).
		Where(sq.Lt{"created_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count pending: %w", err)
	}

	var count int64
	if err := r.Querier(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.HandleError(err)
	}
	return count, nil
}

func (r *FileRecordRepository) findOne(ctx context.Context, pred sq.Sqlizer) (*entity.FileRecord, error) {
	query, args, err := database.Builder.
		Select(fileRecordColumns...).
		From(fileRecordsTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select file record: %w", err)
	}

	record, err := r.scan(r.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("file")
		}
		return nil, r.HandleError(err)
	}
	return record, nil
}

func (r *FileRecordRepository) values(record *entity.FileRecord) []any {
	return []any{
		record.ID,
		record.ContentHash.Value(),
		record.Size,
		record.MimeType.Value(),
		record.UploadID,
		record.Finished,
		record.CreatedAt,
		record.UpdatedAt,
	}
}

// scan は1行をentity.FileRecordに変換します
func (r *FileRecordRepository) scan(row pgx.Row) (*entity.FileRecord, error) {
	var (
		id        uuid.UUID
		hash      string
		size      int64
		mimeType  string
		uploadID  *string
		finished  bool
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &hash, &size, &mimeType, &uploadID, &finished, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return entity.ReconstructFileRecord(
		id,
		valueobject.ReconstructContentHash(hash),
		size,
		valueobject.ReconstructMimeType(mimeType),
		uploadID,
		finished,
		createdAt,
		updatedAt,
	), nil
}

func columnList() string {
	return strings.Join(fileRecordColumns, ", ")
}
