package domain_test

import (
	"strings"
	"testing"
	"time"

	"chunk-transfer/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestUploadMetadata_RecordChunk_InfersTotal(t *testing.T) {
	// Arrange
	meta := domain.NewUploadMetadata("alice", "a.bin", now)

	// Act
	meta.RecordChunk(10, 19, 10, now)
	meta.RecordChunk(0, 4, 5, now.Add(time.Minute))

	// Assert
	require.NotNil(t, meta.TotalBytes)
	assert.Equal(t, uint64(20), *meta.TotalBytes)
	assert.False(t, meta.TotalDeclared)
	assert.Equal(t, now.Add(time.Minute), meta.LastUpdate)
	assert.Len(t, meta.Chunks, 2)
	assert.False(t, meta.IsComplete())

	meta.RecordChunk(5, 9, 5, now)
	assert.True(t, meta.IsComplete())
}

func TestUploadMetadata_RecordChunk_RetryReplacesRecord(t *testing.T) {
	meta := domain.NewUploadMetadata("alice", "a.bin", now)

	meta.RecordChunk(0, 4, 5, now)
	meta.RecordChunk(0, 4, 5, now.Add(time.Second))

	assert.Len(t, meta.Chunks, 1)
	assert.Equal(t, now.Add(time.Second), meta.Chunks["0-4"].LastUpdate)
}

func TestUploadMetadata_DeclareTotal(t *testing.T) {
	t.Run("fixes the total", func(t *testing.T) {
		meta := domain.NewUploadMetadata("alice", "a.bin", now)
		meta.RecordChunk(0, 4, 5, now)

		require.NoError(t, meta.DeclareTotal(100))
		meta.RecordChunk(10, 19, 10, now)

		assert.Equal(t, uint64(100), *meta.TotalBytes)
		assert.True(t, meta.TotalDeclared)
		assert.NoError(t, meta.DeclareTotal(100))
	})

	t.Run("conflicting declaration", func(t *testing.T) {
		meta := domain.NewUploadMetadata("alice", "a.bin", now)
		require.NoError(t, meta.DeclareTotal(100))

		assert.ErrorIs(t, meta.DeclareTotal(99), domain.ErrTotalMismatch)
	})

	t.Run("smaller than received", func(t *testing.T) {
		meta := domain.NewUploadMetadata("alice", "a.bin", now)
		meta.RecordChunk(0, 49, 50, now)

		assert.ErrorIs(t, meta.DeclareTotal(10), domain.ErrTotalMismatch)
	})

	t.Run("zero", func(t *testing.T) {
		meta := domain.NewUploadMetadata("alice", "a.bin", now)

		assert.ErrorIs(t, meta.DeclareTotal(0), domain.ErrTotalMismatch)
	})
}

func TestUploadMetadata_AcceptsRange(t *testing.T) {
	meta := domain.NewUploadMetadata("alice", "a.bin", now)
	assert.NoError(t, meta.AcceptsRange(domain.ByteRange{Start: 0, End: 1 << 40}))

	require.NoError(t, meta.DeclareTotal(10))

	assert.NoError(t, meta.AcceptsRange(domain.ByteRange{Start: 5, End: 9}))
	assert.ErrorIs(t, meta.AcceptsRange(domain.ByteRange{Start: 5, End: 10}), domain.ErrInvalidRange)
}

func TestUploadMetadata_IsStale(t *testing.T) {
	meta := domain.NewUploadMetadata("alice", "a.bin", now)

	assert.True(t, meta.IsStale(now.Add(time.Nanosecond)))
	assert.False(t, meta.IsStale(now))
}

func TestUploadMetadata_Validate(t *testing.T) {
	valid := func() *domain.UploadMetadata {
		meta := domain.NewUploadMetadata("alice", "a.bin", now)
		meta.RecordChunk(0, 4, 5, now)
		return meta
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(m *domain.UploadMetadata)
	}{
		{"missing owner", func(m *domain.UploadMetadata) { m.Owner = "" }},
		{"wrong size", func(m *domain.UploadMetadata) {
			m.Chunks["0-4"] = domain.ChunkRecord{StartByte: 0, EndByte: 4, Size: 4}
		}},
		{"end before start", func(m *domain.UploadMetadata) {
			m.Chunks["0-4"] = domain.ChunkRecord{StartByte: 4, EndByte: 0, Size: 5}
		}},
		{"mismatched key", func(m *domain.UploadMetadata) {
			m.Chunks["1-5"] = domain.ChunkRecord{StartByte: 0, EndByte: 4, Size: 5}
		}},
		{"declared without total", func(m *domain.UploadMetadata) {
			m.TotalDeclared = true
			m.TotalBytes = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := valid()
			tt.mutate(meta)
			assert.ErrorIs(t, meta.Validate(), domain.ErrCorruptMetadata)
		})
	}
}

func TestValidateFilename(t *testing.T) {
	for _, name := range []string{"a.bin", ".hidden", "movie 2024.mp4", strings.Repeat("x", 200)} {
		assert.NoError(t, domain.ValidateFilename(name), name)
	}

	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b", "clip.partial", strings.Repeat("x", 201)} {
		assert.ErrorIs(t, domain.ValidateFilename(name), domain.ErrInvalidFilename, name)
	}
}

func TestValidateOwner(t *testing.T) {
	assert.NoError(t, domain.ValidateOwner("alice"))
	assert.ErrorIs(t, domain.ValidateOwner(""), domain.ErrInvalidOwner)
	assert.ErrorIs(t, domain.ValidateOwner("../bob"), domain.ErrInvalidOwner)
}
