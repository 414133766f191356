package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
)

var _ service.BlobStore = (*MinIOBlobStore)(nil)

// MinIOBlobStore はMinIO（S3互換）をバックエンドとするBlobStore実装です
type MinIOBlobStore struct {
	client     *minio.Client
	core       *minio.Core
	bucketName string
}

// NewMinIOBlobStore は新しいMinIOBlobStoreを作成します
func NewMinIOBlobStore(client *MinIOClient) *MinIOBlobStore {
	return &MinIOBlobStore{
		client:     client.Client(),
		core:       client.Core(),
		bucketName: client.BucketName(),
	}
}

// PutObject はオブジェクトを一括でアップロードします
func (s *MinIOBlobStore) PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// CreateMultipartUpload はマルチパートアップロードを開始します
func (s *MinIOBlobStore) CreateMultipartUpload(ctx context.Context, objectKey, contentType string) (string, error) {
	uploadID, err := s.core.NewMultipartUpload(ctx, s.bucketName, objectKey, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create multipart upload: %w", err)
	}
	return uploadID, nil
}

// UploadPart は1パートをアップロードしETagを返します
func (s *MinIOBlobStore) UploadPart(ctx context.Context, objectKey, uploadID string, partNumber int, reader io.Reader, size int64) (string, error) {
	part, err := s.core.PutObjectPart(ctx, s.bucketName, objectKey, uploadID, partNumber, reader, size, minio.PutObjectPartOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to upload part %d: %w", partNumber, mapMinIOError(err))
	}
	return part.ETag, nil
}

// CompleteMultipartUpload はパート一覧からオブジェクトを組み立てます
func (s *MinIOBlobStore) CompleteMultipartUpload(ctx context.Context, objectKey, uploadID string, parts []service.CompletedPart) error {
	completeParts := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completeParts[i] = minio.CompletePart{
			PartNumber: p.PartNumber,
			ETag:       p.ETag,
		}
	}

	if _, err := s.core.CompleteMultipartUpload(ctx, s.bucketName, objectKey, uploadID, completeParts, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", mapMinIOError(err))
	}
	return nil
}

// AbortMultipartUpload はマルチパートアップロードを中断します
func (s *MinIOBlobStore) AbortMultipartUpload(ctx context.Context, objectKey, uploadID string) error {
	if err := s.core.AbortMultipartUpload(ctx, s.bucketName, objectKey, uploadID); err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", mapMinIOError(err))
	}
	return nil
}

// GetObject はオブジェクトを取得します
// minio.Object は遅延取得のため、Stat で存在を確定させてから返します
func (s *MinIOBlobStore) GetObject(ctx context.Context, objectKey string) (*service.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", mapMinIOError(err))
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("failed to stat object: %w", mapMinIOError(err))
	}

	return &service.Object{
		Body: obj,
		Info: toObjectInfo(info),
	}, nil
}

// StatObject はオブジェクトのメタデータを取得します
func (s *MinIOBlobStore) StatObject(ctx context.Context, objectKey string) (*service.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", mapMinIOError(err))
	}
	out := toObjectInfo(info)
	return &out, nil
}

func toObjectInfo(info minio.ObjectInfo) service.ObjectInfo {
	return service.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}

// mapMinIOError は存在しないキー・セッションを ErrObjectNotFound に変換します
func mapMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchUpload", "NoSuchBucket":
		return fmt.Errorf("%w: %v", service.ErrObjectNotFound, err)
	}
	return err
}
