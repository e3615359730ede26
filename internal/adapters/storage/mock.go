package storage

import (
	"context"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"

	"github.com/stretchr/testify/mock"
)

type MockChunkStore struct {
	mock.Mock
}

func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{}
}

func (m *MockChunkStore) Put(ctx context.Context, owner, filename string, r domain.ByteRange, payload []byte) error {
	args := m.Called(ctx, owner, filename, r, payload)
	return args.Error(0)
}

func (m *MockChunkStore) Get(ctx context.Context, owner, filename string, r domain.ByteRange) ([]byte, error) {
	args := m.Called(ctx, owner, filename, r)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockChunkStore) Delete(ctx context.Context, owner, filename string, r domain.ByteRange) error {
	args := m.Called(ctx, owner, filename, r)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteAll(ctx context.Context, owner, filename string) error {
	args := m.Called(ctx, owner, filename)
	return args.Error(0)
}

func (m *MockChunkStore) Uploads(ctx context.Context) ([]domain.UploadKey, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UploadKey), args.Error(1)
}

type MockArtifactStore struct {
	mock.Mock
}

func NewMockArtifactStore() *MockArtifactStore {
	return &MockArtifactStore{}
}

func (m *MockArtifactStore) Create(ctx context.Context, owner, filename string, kind domain.ArtifactKind, size uint64) (port.PendingArtifact, error) {
	args := m.Called(ctx, owner, filename, kind, size)
	pending, _ := args.Get(0).(port.PendingArtifact)
	return pending, args.Error(1)
}

func (m *MockArtifactStore) Stat(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (*domain.ArtifactInfo, error) {
	args := m.Called(ctx, owner, filename, kind)
	return args.Get(0).(*domain.ArtifactInfo), args.Error(1)
}

func (m *MockArtifactStore) Open(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (port.ArtifactReader, *domain.ArtifactInfo, error) {
	args := m.Called(ctx, owner, filename, kind)
	reader, _ := args.Get(0).(port.ArtifactReader)
	return reader, args.Get(1).(*domain.ArtifactInfo), args.Error(2)
}

func (m *MockArtifactStore) Delete(ctx context.Context, owner, filename string, kind domain.ArtifactKind) error {
	args := m.Called(ctx, owner, filename, kind)
	return args.Error(0)
}

func (m *MockArtifactStore) List(ctx context.Context, owner string) ([]domain.ArtifactInfo, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).([]domain.ArtifactInfo), args.Error(1)
}

// MockPendingArtifact records writes in memory
type MockPendingArtifact struct {
	mock.Mock
	Data []byte
}

func NewMockPendingArtifact(size int) *MockPendingArtifact {
	return &MockPendingArtifact{Data: make([]byte, size)}
}

func (m *MockPendingArtifact) WriteAt(b []byte, off int64) (int, error) {
	args := m.Called(b, off)
	if err := args.Error(0); err != nil {
		return 0, err
	}
	return copy(m.Data[off:], b), nil
}

func (m *MockPendingArtifact) Commit(ctx context.Context, manifest *domain.ReclaimManifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockPendingArtifact) Abort() error {
	args := m.Called()
	return args.Error(0)
}
