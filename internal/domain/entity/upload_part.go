package entity

import (
	"errors"
	"time"
)

// マルチパート関連定数
const (
	MinPartNumber = 1
	MaxPartNumber = 10000
	MinPartSize   = 5 * 1024 * 1024        // 5MB（最終パートを除く）
	MaxPartSize   = 100 * 1024 * 1024      // 100MB（base64 JSON で本文上限 160M に収まる）
	MaxUploadSize = MaxPartNumber * MaxPartSize
)

// パート関連エラー
var (
	ErrInvalidPartNumber = errors.New("part number out of range")
	ErrInvalidPartSize   = errors.New("invalid part size")
	ErrEmptyETag         = errors.New("empty part etag")
)

// UploadPart はマルチパートアップロードの各パーツ情報エンティティ
// (UploadID, PartNumber) で一意です
type UploadPart struct {
	UploadID   string
	PartNumber int
	Size       int64
	ETag       string // Blobストアから返却されたETag
	UploadedAt time.Time
}

// NewUploadPart は新しいUploadPartを作成します
func NewUploadPart(
	uploadID string,
	partNumber int,
	size int64,
	etag string,
) (*UploadPart, error) {
	if err := ValidatePartNumber(partNumber); err != nil {
		return nil, err
	}
	if size <= 0 || size > MaxPartSize {
		return nil, ErrInvalidPartSize
	}
	if etag == "" {
		return nil, ErrEmptyETag
	}

	return &UploadPart{
		UploadID:   uploadID,
		PartNumber: partNumber,
		Size:       size,
		ETag:       etag,
		UploadedAt: time.Now(),
	}, nil
}

// ReconstructUploadPart はDBからUploadPartを復元します
func ReconstructUploadPart(
	uploadID string,
	partNumber int,
	size int64,
	etag string,
	uploadedAt time.Time,
) *UploadPart {
	return &UploadPart{
		UploadID:   uploadID,
		PartNumber: partNumber,
		Size:       size,
		ETag:       etag,
		UploadedAt: uploadedAt,
	}
}

// ValidatePartNumber はパート番号が範囲内かどうかを検証します
func ValidatePartNumber(partNumber int) error {
	if partNumber < MinPartNumber || partNumber > MaxPartNumber {
		return ErrInvalidPartNumber
	}
	return nil
}
