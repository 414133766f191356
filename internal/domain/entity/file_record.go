package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
)

// ファイルレコード関連エラー
var (
	ErrFileRecordAlreadyFinished = errors.New("file record already finished")
	ErrFileRecordNoUploadSession = errors.New("pending file record has no upload session")
	ErrFileRecordInvalidSize     = errors.New("invalid file size")
)

// FileRecord はコンテンツハッシュ単位のファイルエンティティ
// 同一内容のファイルは常に1レコードに集約されます
type FileRecord struct {
	ID          uuid.UUID // 公開ID（取得時に使用）
	ContentHash valueobject.ContentHash
	Size        int64
	MimeType    valueobject.MimeType
	UploadID    *string // マルチパートアップロードID（未完了の間のみ）
	Finished    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFinishedFileRecord は一括アップロード済みのFileRecordを作成します
func NewFinishedFileRecord(
	hash valueobject.ContentHash,
	size int64,
	mimeType valueobject.MimeType,
) (*FileRecord, error) {
	if size < 0 {
		return nil, ErrFileRecordInvalidSize
	}

	now := time.Now()
	return &FileRecord{
		ID:          uuid.New(),
		ContentHash: hash,
		Size:        size,
		MimeType:    mimeType,
		Finished:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewPendingFileRecord はマルチパートアップロード中のFileRecordを作成します
func NewPendingFileRecord(
	hash valueobject.ContentHash,
	size int64,
	mimeType valueobject.MimeType,
	uploadID string,
) (*FileRecord, error) {
	if size <= 0 {
		return nil, ErrFileRecordInvalidSize
	}
	if uploadID == "" {
		return nil, ErrFileRecordNoUploadSession
	}

	now := time.Now()
	return &FileRecord{
		ID:          uuid.New(),
		ContentHash: hash,
		Size:        size,
		MimeType:    mimeType,
		UploadID:    &uploadID,
		Finished:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ReconstructFileRecord はDBからFileRecordを復元します
// 完了済みレコードはアップロードIDを持ちません
func ReconstructFileRecord(
	id uuid.UUID,
	hash valueobject.ContentHash,
	size int64,
	mimeType valueobject.MimeType,
	uploadID *string,
	finished bool,
	createdAt time.Time,
	updatedAt time.Time,
) *FileRecord {
	if finished {
		uploadID = nil
	}
	return &FileRecord{
		ID:          id,
		ContentHash: hash,
		Size:        size,
		MimeType:    mimeType,
		UploadID:    uploadID,
		Finished:    finished,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// MarkFinished はアップロードを完了状態にします
func (f *FileRecord) MarkFinished() error {
	if f.Finished {
		return ErrFileRecordAlreadyFinished
	}

	f.Finished = true
	f.UploadID = nil
	f.UpdatedAt = time.Now()
	return nil
}

// HasUploadSession は指定のアップロードIDが進行中のセッションかどうかを判定します
func (f *FileRecord) HasUploadSession(uploadID string) bool {
	return !f.Finished && f.UploadID != nil && *f.UploadID == uploadID
}

// CurrentUploadID は進行中のアップロードIDを返します
func (f *FileRecord) CurrentUploadID() string {
	if f.UploadID == nil {
		return ""
	}
	return *f.UploadID
}

// IsAvailable はダウンロード可能かどうかを判定します
func (f *FileRecord) IsAvailable() bool {
	return f.Finished
}

// Validate は状態の整合性を検証します
func (f *FileRecord) Validate() error {
	if f.Finished && f.UploadID != nil {
		return ErrFileRecordAlreadyFinished
	}
	if !f.Finished && f.CurrentUploadID() == "" {
		return ErrFileRecordNoUploadSession
	}
	if f.Size < 0 {
		return ErrFileRecordInvalidSize
	}
	return nil
}
