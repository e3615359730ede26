package file

import (
	"context"

	"chunk-transfer/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

// MockFileService is a mock implementation of FileService
type MockFileService struct {
	mock.Mock
}

// NewMockFileService creates a new MockFileService
func NewMockFileService() *MockFileService {
	return &MockFileService{}
}

func (m *MockFileService) PutChunk(ctx context.Context, owner, filename string, blob []byte, declaredTotal *uint64) (*domain.UploadStatus, error) {
	args := m.Called(ctx, owner, filename, blob, declaredTotal)
	return args.Get(0).(*domain.UploadStatus), args.Error(1)
}

func (m *MockFileService) GetStatus(ctx context.Context, owner, filename string) (*domain.FileView, error) {
	args := m.Called(ctx, owner, filename)
	return args.Get(0).(*domain.FileView), args.Error(1)
}

func (m *MockFileService) OpenDownload(ctx context.Context, owner, filename string, rng *domain.RangeRequest) (*domain.Download, error) {
	args := m.Called(ctx, owner, filename, rng)
	return args.Get(0).(*domain.Download), args.Error(1)
}

func (m *MockFileService) ListFiles(ctx context.Context, owner string) ([]domain.FileView, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]domain.FileView), args.Error(1)
}

func (m *MockFileService) DeleteFile(ctx context.Context, owner, filename string) (bool, error) {
	args := m.Called(ctx, owner, filename)
	return args.Bool(0), args.Error(1)
}
