package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
)

// MockFileRecordRepository is a mock of repository.FileRecordRepository
type MockFileRecordRepository struct {
	mock.Mock
}

func NewMockFileRecordRepository(t *testing.T) *MockFileRecordRepository {
	m := &MockFileRecordRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFileRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRecordRepository) FindByContentHash(ctx context.Context, hash valueobject.ContentHash) (*entity.FileRecord, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRecordRepository) CreatePending(ctx context.Context, record *entity.FileRecord) (*entity.FileRecord, bool, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.FileRecord), args.Bool(1), args.Error(2)
}

func (m *MockFileRecordRepository) CreateFinished(ctx context.Context, record *entity.FileRecord) (*entity.FileRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRecordRepository) MarkFinished(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRecordRepository) ClaimFinish(ctx context.Context, uploadID string, ttl time.Duration) (*entity.FileRecord, error) {
	args := m.Called(ctx, uploadID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FileRecord), args.Error(1)
}

func (m *MockFileRecordRepository) ReleaseFinish(ctx context.Context, uploadID string) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}

func (m *MockFileRecordRepository) CountPendingOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
