package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

var _ repository.FileRecordRepository = (*FileRecordCache)(nil)

// Store はFileRecordCacheが使用するキャッシュ操作です
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl ...time.Duration) error
	Delete(ctx context.Context, key string) error
}

// cachedFileRecord はキャッシュに保存するFileRecordの表現です
type cachedFileRecord struct {
	ID          uuid.UUID `json:"id"`
	ContentHash string    `json:"content_hash"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mime_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FileRecordCache は完了済みFileRecordのリードスルーキャッシュです
// 完了済みレコードは不変のため、未完了レコードはキャッシュしません
// 書き込み系はトランザクション内で呼ばれるため、キャッシュへの登録は検索時のみ行います
// キャッシュ障害時は台帳の結果をそのまま返します
type FileRecordCache struct {
	repository.FileRecordRepository
	byID   Store
	byHash Store
	ttl    time.Duration
}

// NewFileRecordCache は台帳リポジトリをキャッシュで包みます
func NewFileRecordCache(next repository.FileRecordRepository, byID, byHash Store, ttl time.Duration) *FileRecordCache {
	return &FileRecordCache{
		FileRecordRepository: next,
		byID:                 byID,
		byHash:               byHash,
		ttl:                  ttl,
	}
}

// FindByID は公開IDでレコードを検索します
func (c *FileRecordCache) FindByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	key := FileIDKey(id)
	if record, ok := c.lookup(ctx, c.byID, key); ok {
		return record, nil
	}

	record, err := c.FileRecordRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, record)
	return record, nil
}

// FindByContentHash はコンテンツハッシュでレコードを検索します
func (c *FileRecordCache) FindByContentHash(ctx context.Context, hash valueobject.ContentHash) (*entity.FileRecord, error) {
	if record, ok := c.lookup(ctx, c.byHash, hash.Value()); ok {
		return record, nil
	}

	record, err := c.FileRecordRepository.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	c.store(ctx, record)
	return record, nil
}

func (c *FileRecordCache) lookup(ctx context.Context, store Store, key string) (*entity.FileRecord, bool) {
	var cached cachedFileRecord
	if err := store.Get(ctx, key, &cached); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn(ctx, "file record cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	hash, err := valueobject.NewContentHash(cached.ContentHash)
	if err != nil {
		_ = store.Delete(ctx, key)
		return nil, false
	}
	logger.Debug(ctx, "file record cache hit", "key", key)

	return entity.ReconstructFileRecord(
		cached.ID,
		hash,
		cached.Size,
		valueobject.ReconstructMimeType(cached.MimeType),
		nil,
		true,
		cached.CreatedAt,
		cached.UpdatedAt,
	), true
}

func (c *FileRecordCache) store(ctx context.Context, record *entity.FileRecord) {
	if record == nil || !record.Finished {
		return
	}

	cached := cachedFileRecord{
		ID:          record.ID,
		ContentHash: record.ContentHash.Value(),
		Size:        record.Size,
		MimeType:    record.MimeType.Value(),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}

	if err := c.byID.Set(ctx, FileIDKey(record.ID), cached, c.ttl); err != nil {
		logger.Warn(ctx, "file record cache write failed", "public_id", record.ID, "error", err)
	}
	if err := c.byHash.Set(ctx, record.ContentHash.Value(), cached, c.ttl); err != nil {
		logger.Warn(ctx, "file record cache write failed", "content_hash", record.ContentHash.Value(), "error", err)
	}
}
