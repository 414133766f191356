package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
)

// MockUploadPartRepository is a mock of repository.UploadPartRepository
type MockUploadPartRepository struct {
	mock.Mock
}

func NewMockUploadPartRepository(t *testing.T) *MockUploadPartRepository {
	m := &MockUploadPartRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUploadPartRepository) Upsert(ctx context.Context, part *entity.UploadPart) (*entity.UploadPart, error) {
	args := m.Called(ctx, part)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UploadPart), args.Error(1)
}

func (m *MockUploadPartRepository) FindByUploadID(ctx context.Context, uploadID string) ([]*entity.UploadPart, error) {
	args := m.Called(ctx, uploadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.UploadPart), args.Error(1)
}

func (m *MockUploadPartRepository) DeleteByUploadID(ctx context.Context, uploadID string) error {
	args := m.Called(ctx, uploadID)
	return args.Error(0)
}
