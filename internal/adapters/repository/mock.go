package repository

import (
	"context"

	"chunk-transfer/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockUploadMetadataRepository struct {
	mock.Mock
}

func NewMockUploadMetadataRepository() *MockUploadMetadataRepository {
	return &MockUploadMetadataRepository{}
}

func (m *MockUploadMetadataRepository) Load(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	args := m.Called(ctx, owner, filename)
	return args.Get(0).(*domain.UploadMetadata), args.Error(1)
}

func (m *MockUploadMetadataRepository) CreateOrLoad(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	args := m.Called(ctx, owner, filename)
	return args.Get(0).(*domain.UploadMetadata), args.Error(1)
}

func (m *MockUploadMetadataRepository) Save(ctx context.Context, metadata *domain.UploadMetadata) error {
	args := m.Called(ctx, metadata)
	return args.Error(0)
}

func (m *MockUploadMetadataRepository) Delete(ctx context.Context, owner, filename string) error {
	args := m.Called(ctx, owner, filename)
	return args.Error(0)
}

func (m *MockUploadMetadataRepository) ListByOwner(ctx context.Context, owner string) ([]domain.UploadMetadata, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]domain.UploadMetadata), args.Error(1)
}

func (m *MockUploadMetadataRepository) ListAll(ctx context.Context) ([]domain.UploadKey, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UploadKey), args.Error(1)
}
