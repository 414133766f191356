package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
)

// FileRecordRepository はファイル台帳リポジトリのインターフェース
// 見つからない場合は apperror.NotFound を返します
type FileRecordRepository interface {
	// 検索
	FindByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error)
	FindByContentHash(ctx context.Context, hash valueobject.ContentHash) (*entity.FileRecord, error)

	// CreatePending はコンテンツハッシュの一意制約による compare-and-create です
	// 既存レコードがあれば挿入せずにそれを返し、created=false となります
	CreatePending(ctx context.Context, record *entity.FileRecord) (stored *entity.FileRecord, created bool, err error)

	// CreateFinished は完了済みレコードを作成します
	// 同一ハッシュの未完了レコードがあれば完了状態へ昇格させます
	CreateFinished(ctx context.Context, record *entity.FileRecord) (*entity.FileRecord, error)

	// MarkFinished は未完了レコードを完了状態にしアップロードIDを解放します
	MarkFinished(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error)

	// 完了処理の排他
	// ClaimFinish は期限付きで完了処理の権利を取得します。取得済みなら apperror.Conflict を返します
	ClaimFinish(ctx context.Context, uploadID string, ttl time.Duration) (*entity.FileRecord, error)
	ReleaseFinish(ctx context.Context, uploadID string) error

	// 集計
	CountPendingOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// UploadPartRepository はアップロードパートリポジトリのインターフェース
type UploadPartRepository interface {
	// Upsert は (UploadID, PartNumber) で冪等に登録します（後勝ち）
	Upsert(ctx context.Context, part *entity.UploadPart) (*entity.UploadPart, error)
	// FindByUploadID はパート番号の昇順で返します
	FindByUploadID(ctx context.Context, uploadID string) ([]*entity.UploadPart, error)
	DeleteByUploadID(ctx context.Context, uploadID string) error
}
