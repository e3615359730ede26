package filesystem_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chunk-transfer/internal/adapters/repository/filesystem"
	"chunk-transfer/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadMetadataRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (string, *domain.UploadMetadata) {
		meta := domain.NewUploadMetadata("alice", "video.mp4", now)
		meta.RecordChunk(0, 9, 10, now)
		meta.RecordChunk(20, 29, 10, now)
		return t.TempDir(), meta
	}

	t.Run("Save then Load", func(t *testing.T) {
		// Arrange
		root, meta := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)

		// Act
		err = repo.Save(ctx, meta)

		// Assert
		require.NoError(t, err)
		loaded, err := repo.Load(ctx, "alice", "video.mp4")
		require.NoError(t, err)
		assert.Equal(t, meta, loaded)
		assert.FileExists(t, filepath.Join(root, "alice", "uploads", "video.mp4.json"))
		tmp, err := os.ReadDir(filepath.Join(root, "alice", "tmp"))
		require.NoError(t, err)
		assert.Empty(t, tmp)
	})

	t.Run("Load - Not found", func(t *testing.T) {
		// Arrange
		root, _ := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)

		// Act
		_, err = repo.Load(ctx, "alice", "video.mp4")

		// Assert
		assert.ErrorIs(t, err, domain.ErrUploadNotFound)
	})

	t.Run("Load - Corrupt document", func(t *testing.T) {
		// Arrange
		root, _ := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)
		dir := filepath.Join(root, "alice", "uploads")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "video.mp4.json"), []byte(`{"owner":"alice","filename":"video.mp4","chunks":{"0-9":{"start_byte":0,"end_byte":9,"size":3}}}`), 0o644))

		// Act
		_, err = repo.Load(ctx, "alice", "video.mp4")

		// Assert
		assert.ErrorIs(t, err, domain.ErrCorruptMetadata)
	})

	t.Run("Load - Unknown fields are rejected", func(t *testing.T) {
		// Arrange
		root, _ := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)
		dir := filepath.Join(root, "alice", "uploads")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "video.mp4.json"), []byte(`{"owner":"alice","filename":"video.mp4","extra":1}`), 0o644))

		// Act
		_, err = repo.Load(ctx, "alice", "video.mp4")

		// Assert
		assert.ErrorIs(t, err, domain.ErrCorruptMetadata)
	})

	t.Run("CreateOrLoad - Does not persist", func(t *testing.T) {
		// Arrange
		root, _ := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)

		// Act
		meta, err := repo.CreateOrLoad(ctx, "alice", "new.bin")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "new.bin", meta.Filename)
		assert.Empty(t, meta.Chunks)
		_, err = repo.Load(ctx, "alice", "new.bin")
		assert.ErrorIs(t, err, domain.ErrUploadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Arrange
		root, meta := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, meta))

		// Act
		err = repo.Delete(ctx, "alice", "video.mp4")

		// Assert
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Delete(ctx, "alice", "video.mp4"), domain.ErrUploadNotFound)
	})

	t.Run("ListByOwner and ListAll", func(t *testing.T) {
		// Arrange
		root, meta := setup(t)
		repo, err := filesystem.NewUploadMetadataRepository(root, slog.Default())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, meta))
		require.NoError(t, repo.Save(ctx, domain.NewUploadMetadata("alice", "a.bin", now)))
		require.NoError(t, repo.Save(ctx, domain.NewUploadMetadata("bob", "b.bin", now)))
		require.NoError(t, os.WriteFile(filepath.Join(root, "alice", "uploads", "broken.json"), []byte("{"), 0o644))

		// Act
		uploads, listErr := repo.ListByOwner(ctx, "alice")
		keys, allErr := repo.ListAll(ctx)

		// Assert
		require.NoError(t, listErr)
		require.NoError(t, allErr)
		require.Len(t, uploads, 2)
		assert.Equal(t, "a.bin", uploads[0].Filename)
		assert.Equal(t, "video.mp4", uploads[1].Filename)
		assert.ElementsMatch(t, []domain.UploadKey{
			{Owner: "alice", Filename: "a.bin"},
			{Owner: "alice", Filename: "broken"},
			{Owner: "alice", Filename: "video.mp4"},
			{Owner: "bob", Filename: "b.bin"},
		}, keys)
	})
}
