package service

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound はオブジェクトまたはアップロードセッションが存在しないことを表します
	ErrObjectNotFound = errors.New("object not found")
)

// CompletedPart は完了マニフェストの1パートです
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// ObjectInfo はオブジェクトのメタデータです
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// Object は読み出し中のオブジェクトです。Body は呼び出し側で Close します
type Object struct {
	Body io.ReadCloser
	Info ObjectInfo
}

// BlobStore はコンテンツアドレス型オブジェクトストアのドメインサービスインターフェースです
type BlobStore interface {
	// 一括アップロード
	PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error

	// マルチパートアップロード開始
	CreateMultipartUpload(ctx context.Context, objectKey, contentType string) (uploadID string, err error)

	// パートアップロード（ETagを返す）
	UploadPart(ctx context.Context, objectKey, uploadID string, partNumber int, reader io.Reader, size int64) (etag string, err error)

	// マルチパートアップロード完了（parts はパート番号昇順）
	CompleteMultipartUpload(ctx context.Context, objectKey, uploadID string, parts []CompletedPart) error

	// マルチパートアップロード中断
	AbortMultipartUpload(ctx context.Context, objectKey, uploadID string) error

	// オブジェクト取得
	GetObject(ctx context.Context, objectKey string) (*Object, error)

	// オブジェクトのメタデータ取得（存在確認）
	StatObject(ctx context.Context, objectKey string) (*ObjectInfo, error)
}
