package mocks

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
)

// MockBlobStore is a mock of service.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func NewMockBlobStore(t *testing.T) *MockBlobStore {
	m := &MockBlobStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBlobStore) PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	return args.Error(0)
}

func (m *MockBlobStore) CreateMultipartUpload(ctx context.Context, objectKey, contentType string) (string, error) {
	args := m.Called(ctx, objectKey, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) UploadPart(ctx context.Context, objectKey, uploadID string, partNumber int, reader io.Reader, size int64) (string, error) {
	args := m.Called(ctx, objectKey, uploadID, partNumber, reader, size)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) CompleteMultipartUpload(ctx context.Context, objectKey, uploadID string, parts []service.CompletedPart) error {
	args := m.Called(ctx, objectKey, uploadID, parts)
	return args.Error(0)
}

func (m *MockBlobStore) AbortMultipartUpload(ctx context.Context, objectKey, uploadID string) error {
	args := m.Called(ctx, objectKey, uploadID)
	return args.Error(0)
}

func (m *MockBlobStore) GetObject(ctx context.Context, objectKey string) (*service.Object, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Object), args.Error(1)
}

func (m *MockBlobStore) StatObject(ctx context.Context, objectKey string) (*service.ObjectInfo, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ObjectInfo), args.Error(1)
}
