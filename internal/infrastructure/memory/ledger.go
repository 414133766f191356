// Package memory はプロセス内で完結する台帳実装を提供します
// DATABASE_DRIVER=memory でのローカル実行とテストに使用します
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

var (
	_ repository.FileRecordRepository = (*Ledger)(nil)
	_ repository.UploadPartRepository = (*Ledger)(nil)
	_ repository.TransactionManager   = (*Ledger)(nil)
)

// Ledger はファイル台帳とパート台帳のインメモリ実装です
// 各操作はミューテックスで直列化され、一意制約はマップのキーで表現します
type Ledger struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*entity.FileRecord
	byHash   map[string]uuid.UUID
	byUpload map[string]uuid.UUID
	parts    map[string]map[int]*entity.UploadPart
	claims   map[string]time.Time
	now      func() time.Time
}

// NewLedger は空のLedgerを作成します
func NewLedger() *Ledger {
	return &Ledger{
		records:  make(map[uuid.UUID]*entity.FileRecord),
		byHash:   make(map[string]uuid.UUID),
		byUpload: make(map[string]uuid.UUID),
		parts:    make(map[string]map[int]*entity.UploadPart),
		claims:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithTransaction は関数をそのまま実行します
func (l *Ledger) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FindByID は公開IDでレコードを検索します
func (l *Ledger) FindByID(_ context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[id]
	if !ok {
		return nil, apperror.NewNotFoundError("file")
	}
	return cloneRecord(record), nil
}

// FindByContentHash はコンテンツハッシュでレコードを検索します
func (l *Ledger) FindByContentHash(_ context.Context, hash valueobject.ContentHash) (*entity.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byHash[hash.Value()]
	if !ok {
		return nil, apperror.NewNotFoundError("file")
	}
	return cloneRecord(l.records[id]), nil
}

// CreatePending はハッシュが未登録の場合のみレコードを挿入します
func (l *Ledger) CreatePending(_ context.Context, record *entity.FileRecord) (*entity.FileRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id, ok := l.byHash[record.ContentHash.Value()]; ok {
		return cloneRecord(l.records[id]), false, nil
	}
	if uploadID := record.CurrentUploadID(); uploadID != "" {
		if _, ok := l.byUpload[uploadID]; ok {
			return nil, false, apperror.NewConflictError("upload session already registered")
		}
	}

	l.insert(record)
	return cloneRecord(record), true, nil
}

// CreateFinished は完了済みレコードを登録、または未完了レコードを昇格します
func (l *Ledger) CreateFinished(_ context.Context, record *entity.FileRecord) (*entity.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byHash[record.ContentHash.Value()]
	if !ok {
		l.insert(record)
		return cloneRecord(record), nil
	}

	existing := l.records[id]
	if !existing.Finished {
		l.finish(existing)
		existing.Size = record.Size
	}
	return cloneRecord(existing), nil
}

// MarkFinished はレコードを完了状態にします。完了済みならそのまま返します
func (l *Ledger) MarkFinished(_ context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[id]
	if !ok {
		return nil, apperror.NewNotFoundError("file")
	}
	if !record.Finished {
		l.finish(record)
	}
	return cloneRecord(record), nil
}

// ClaimFinish は完了処理の権利を期限付きで取得します
func (l *Ledger) ClaimFinish(_ context.Context, uploadID string, ttl time.Duration) (*entity.FileRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byUpload[uploadID]
	if !ok {
		return nil, apperror.NewNotFoundError("upload session")
	}

	now := l.now()
	if until, held := l.claims[uploadID]; held && until.After(now) {
		return nil, apperror.NewConflictError("upload is already being finished")
	}
	l.claims[uploadID] = now.Add(ttl)
	return cloneRecord(l.records[id]), nil
}

// ReleaseFinish は完了処理の権利を解放します
func (l *Ledger) ReleaseFinish(_ context.Context, uploadID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.claims, uploadID)
	return nil
}

// CountPendingOlderThan は指定時刻より前に作成された未完了レコード数を返します
func (l *Ledger) CountPendingOlderThan(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var count int64
	for _, record := range l.records {
		if !record.Finished && record.CreatedAt.Before(before) {
			count++
		}
	}
	return count, nil
}

// Upsert はパートを登録します（後勝ち）
func (l *Ledger) Upsert(_ context.Context, part *entity.UploadPart) (*entity.UploadPart, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byNumber, ok := l.parts[part.UploadID]
	if !ok {
		byNumber = make(map[int]*entity.UploadPart)
		l.parts[part.UploadID] = byNumber
	}
	stored := *part
	byNumber[part.PartNumber] = &stored

	out := stored
	return &out, nil
}

// FindByUploadID はパート番号の昇順でパートを返します
func (l *Ledger) FindByUploadID(_ context.Context, uploadID string) ([]*entity.UploadPart, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byNumber := l.parts[uploadID]
	parts := make([]*entity.UploadPart, 0, len(byNumber))
	for _, p := range byNumber {
		cp := *p
		parts = append(parts, &cp)
	}
	entity.SortParts(parts)
	return parts, nil
}

// DeleteByUploadID はアップロードIDの全パートを削除します
func (l *Ledger) DeleteByUploadID(_ context.Context, uploadID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.parts, uploadID)
	return nil
}

// insert はロック取得済みの状態で呼び出します
func (l *Ledger) insert(record *entity.FileRecord) {
	stored := cloneRecord(record)
	l.records[stored.ID] = stored
	l.byHash[stored.ContentHash.Value()] = stored.ID
	if uploadID := stored.CurrentUploadID(); uploadID != "" {
		l.byUpload[uploadID] = stored.ID
	}
}

// finish はロック取得済みの状態で呼び出します
func (l *Ledger) finish(record *entity.FileRecord) {
	uploadID := record.CurrentUploadID()
	delete(l.byUpload, uploadID)
	delete(l.claims, uploadID)
	delete(l.parts, uploadID)
	_ = record.MarkFinished()
}

func cloneRecord(record *entity.FileRecord) *entity.FileRecord {
	cp := *record
	if record.UploadID != nil {
		uploadID := *record.UploadID
		cp.UploadID = &uploadID
	}
	return &cp
}
