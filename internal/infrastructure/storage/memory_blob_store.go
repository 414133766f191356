package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
)

var _ service.BlobStore = (*MemoryBlobStore)(nil)

var (
	ErrInvalidPartOrder = errors.New("parts must be in ascending order")
	ErrInvalidPart      = errors.New("one or more parts could not be found or etag does not match")
	ErrEntityTooSmall   = errors.New("proposed upload is smaller than the minimum allowed part size")
)

type memoryObject struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

type memorySession struct {
	key         string
	contentType string
	parts       map[int]memoryPart
}

type memoryPart struct {
	data []byte
	etag string
}

// MemoryBlobStore はプロセス内に保持するBlobStore実装です
// 開発・テスト用途のため、S3と同じ完了時の検証を行います
type MemoryBlobStore struct {
	mu          sync.RWMutex
	objects     map[string]*memoryObject
	sessions    map[string]*memorySession
	minPartSize int64
	now         func() time.Time
}

// MemoryBlobStoreOption はMemoryBlobStoreの設定を変更します
type MemoryBlobStoreOption func(*MemoryBlobStore)

// WithMinPartSize は最終パート以外に要求する最小サイズを設定します
func WithMinPartSize(size int64) MemoryBlobStoreOption {
	return func(s *MemoryBlobStore) {
		s.minPartSize = size
	}
}

// NewMemoryBlobStore は新しいMemoryBlobStoreを作成します
func NewMemoryBlobStore(opts ...MemoryBlobStoreOption) *MemoryBlobStore {
	s := &MemoryBlobStore{
		objects:     make(map[string]*memoryObject),
		sessions:    make(map[string]*memorySession),
		minPartSize: 5 * 1024 * 1024,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Health は常に nil を返します
func (s *MemoryBlobStore) Health(_ context.Context) error {
	return nil
}

// PutObject はオブジェクトを保存します
func (s *MemoryBlobStore) PutObject(_ context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	data, err := readExactly(reader, size)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[objectKey] = &memoryObject{
		data:         data,
		contentType:  contentType,
		etag:         md5Hex(data),
		lastModified: s.now(),
	}
	return nil
}

// CreateMultipartUpload はマルチパートアップロードを開始します
func (s *MemoryBlobStore) CreateMultipartUpload(_ context.Context, objectKey, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploadID := uuid.NewString()
	s.sessions[uploadID] = &memorySession{
		key:         objectKey,
		contentType: contentType,
		parts:       make(map[int]memoryPart),
	}
	return uploadID, nil
}

// UploadPart はパートを保存しETagを返します
// 同じパート番号の再送は上書きされます
func (s *MemoryBlobStore) UploadPart(_ context.Context, objectKey, uploadID string, partNumber int, reader io.Reader, size int64) (string, error) {
	data, err := readExactly(reader, size)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(objectKey, uploadID)
	if err != nil {
		return "", err
	}

	etag := md5Hex(data)
	session.parts[partNumber] = memoryPart{data: data, etag: etag}
	return etag, nil
}

// CompleteMultipartUpload はパートを連結してオブジェクトを作成します
func (s *MemoryBlobStore) CompleteMultipartUpload(_ context.Context, objectKey, uploadID string, parts []service.CompletedPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(objectKey, uploadID)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return ErrInvalidPart
	}

	var buf bytes.Buffer
	etags := md5.New()
	for i, p := range parts {
		if i > 0 && p.PartNumber <= parts[i-1].PartNumber {
			return ErrInvalidPartOrder
		}
		stored, ok := session.parts[p.PartNumber]
		if !ok || stored.etag != p.ETag {
			return fmt.Errorf("%w: part %d", ErrInvalidPart, p.PartNumber)
		}
		if i < len(parts)-1 && int64(len(stored.data)) < s.minPartSize {
			return fmt.Errorf("%w: part %d", ErrEntityTooSmall, p.PartNumber)
		}
		buf.Write(stored.data)
		raw, _ := hex.DecodeString(stored.etag)
		etags.Write(raw)
	}

	s.objects[objectKey] = &memoryObject{
		data:         buf.Bytes(),
		contentType:  session.contentType,
		etag:         fmt.Sprintf("%s-%d", hex.EncodeToString(etags.Sum(nil)), len(parts)),
		lastModified: s.now(),
	}
	delete(s.sessions, uploadID)
	return nil
}

// AbortMultipartUpload はセッションと保存済みパートを破棄します
func (s *MemoryBlobStore) AbortMultipartUpload(_ context.Context, objectKey, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.session(objectKey, uploadID); err != nil {
		return err
	}
	delete(s.sessions, uploadID)
	return nil
}

// GetObject はオブジェクトを取得します
func (s *MemoryBlobStore) GetObject(_ context.Context, objectKey string) (*service.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectKey]
	if !ok {
		return nil, service.ErrObjectNotFound
	}
	return &service.Object{
		Body: io.NopCloser(bytes.NewReader(obj.data)),
		Info: obj.info(objectKey),
	}, nil
}

// StatObject はオブジェクトのメタデータを取得します
func (s *MemoryBlobStore) StatObject(_ context.Context, objectKey string) (*service.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectKey]
	if !ok {
		return nil, service.ErrObjectNotFound
	}
	info := obj.info(objectKey)
	return &info, nil
}

// Delete はオブジェクトを削除します（テスト用）
func (s *MemoryBlobStore) Delete(objectKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
}

// OpenSessions は未完了のセッション数を返します
func (s *MemoryBlobStore) OpenSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryBlobStore) session(objectKey, uploadID string) (*memorySession, error) {
	session, ok := s.sessions[uploadID]
	if !ok || session.key != objectKey {
		return nil, fmt.Errorf("%w: upload %s", service.ErrObjectNotFound, uploadID)
	}
	return session, nil
}

func (o *memoryObject) info(key string) service.ObjectInfo {
	return service.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		ETag:         o.etag,
		LastModified: o.lastModified,
	}
}

func readExactly(reader io.Reader, size int64) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("body length %d does not match declared size %d", len(data), size)
	}
	return data, nil
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
