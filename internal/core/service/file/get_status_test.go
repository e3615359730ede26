package file_test

import (
	"errors"
	"log/slog"
	"testing"

	"chunk-transfer/internal/adapters/eventbroker"
	"chunk-transfer/internal/adapters/locker"
	"chunk-transfer/internal/adapters/repository"
	"chunk-transfer/internal/adapters/storage"
	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
	"chunk-transfer/internal/core/service/file"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_GetStatus_Lifecycle(t *testing.T) {
	// Arrange
	service, _ := newTestService(t)

	// Act
	pending, pendingErr := service.GetStatus(ctx, "alice", "life.bin")
	_, err := service.PutChunk(ctx, "alice", "life.bin", domain.EncodeChunk(5, []byte("56789")), nil)
	require.NoError(t, err)
	partial, partialErr := service.GetStatus(ctx, "alice", "life.bin")
	_, err = service.PutChunk(ctx, "alice", "life.bin", domain.EncodeChunk(0, []byte("01234")), nil)
	require.NoError(t, err)
	complete, completeErr := service.GetStatus(ctx, "alice", "life.bin")

	// Assert
	require.NoError(t, pendingErr)
	require.NoError(t, partialErr)
	require.NoError(t, completeErr)

	assert.Equal(t, domain.FileStatusPending, pending.Status)
	assert.Nil(t, pending.TotalBytes)

	assert.Equal(t, domain.FileStatusPartial, partial.Status)
	assert.Equal(t, uint64(5), partial.BytesReceived)
	assert.Equal(t, uint64(10), *partial.TotalBytes)
	assert.Equal(t, uint64(0), partial.NextExpectedByte)

	assert.Equal(t, domain.FileStatusComplete, complete.Status)
	assert.Equal(t, uint64(10), complete.BytesReceived)
	assert.Equal(t, uint64(10), complete.NextExpectedByte)
	assert.False(t, complete.Reclaimed)
}

func TestFileService_GetStatus_InvalidFilename(t *testing.T) {
	// Arrange
	service, _ := newTestService(t)

	// Act
	view, err := service.GetStatus(ctx, "alice", "a/b")

	// Assert
	assert.ErrorIs(t, err, domain.ErrInvalidFilename)
	assert.Nil(t, view)
}

func TestFileService_GetStatus_CorruptMetadata(t *testing.T) {
	// Arrange
	mockRepo := repository.NewMockUploadMetadataRepository()
	mockArtifacts := storage.NewMockArtifactStore()
	service := file.NewFileService(mockRepo, storage.NewMockChunkStore(), mockArtifacts, locker.NewKeyedLocker(), eventbroker.NewMockEventPublisher(), config.StorageConfig{}, slog.Default())

	corrupt := errors.Join(domain.ErrCorruptMetadata, errors.New("unexpected EOF"))
	mockArtifacts.On("Stat", ctx, "alice", "a.bin", domain.ArtifactKindComplete).Return((*domain.ArtifactInfo)(nil), domain.ErrArtifactNotFound)
	mockRepo.On("Load", ctx, "alice", "a.bin").Return((*domain.UploadMetadata)(nil), corrupt)

	// Act
	view, err := service.GetStatus(ctx, "alice", "a.bin")

	// Assert
	assert.ErrorIs(t, err, domain.ErrCorruptMetadata)
	assert.Nil(t, view)
	mockArtifacts.AssertNotCalled(t, "Stat", ctx, "alice", "a.bin", domain.ArtifactKindReclaimed)
}

func TestFileService_GetStatus_UploadCompletesDuringRead(t *testing.T) {
	// Arrange
	interleaved := &interleavedArtifacts{}
	service, _ := newTestServiceWith(t, testOptions{artifacts: func(a port.ArtifactStore) port.ArtifactStore {
		interleaved.ArtifactStore = a
		return interleaved
	}})
	_, err := service.PutChunk(ctx, "alice", "race.bin", domain.EncodeChunk(0, []byte("01234")), ptr(uint64(10)))
	require.NoError(t, err)

	interleaved.after = func() {
		status, err := service.PutChunk(ctx, "alice", "race.bin", domain.EncodeChunk(5, []byte("56789")), nil)
		require.NoError(t, err)
		require.Equal(t, domain.FileStatusComplete, status.Status)
	}
	interleaved.armed = true

	// Act
	during, duringErr := service.GetStatus(ctx, "alice", "race.bin")
	after, afterErr := service.GetStatus(ctx, "alice", "race.bin")

	// Assert
	require.NoError(t, duringErr)
	require.NoError(t, afterErr)
	assert.False(t, interleaved.armed)
	assert.Equal(t, domain.FileStatusPartial, during.Status)
	assert.Equal(t, uint64(5), during.BytesReceived)
	assert.Equal(t, domain.FileStatusComplete, after.Status)
	assert.Equal(t, uint64(10), after.BytesReceived)
}

func TestFileService_GetStatus_CompleteWinsOverLeftoverMetadata(t *testing.T) {
	// Arrange
	service, s := newTestService(t)
	_, err := service.PutChunk(ctx, "alice", "left.bin", domain.EncodeChunk(0, []byte("done")), nil)
	require.NoError(t, err)
	leftover := domain.NewUploadMetadata("alice", "left.bin", now)
	leftover.RecordChunk(0, 1, 2, now)
	require.NoError(t, s.repo.Save(ctx, leftover))

	// Act
	view, err := service.GetStatus(ctx, "alice", "left.bin")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusComplete, view.Status)
	assert.Equal(t, uint64(4), view.BytesReceived)
}
