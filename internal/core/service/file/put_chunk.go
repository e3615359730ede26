package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"chunk-transfer/internal/core/domain"
)

// PutChunk validates a header+payload blob, stages it and records it in the
// upload metadata. The chunk that completes the upload triggers assembly.
// Validation failures leave every store untouched.
func (f *fileService) PutChunk(ctx context.Context, owner, filename string, blob []byte, declaredTotal *uint64) (*domain.UploadStatus, error) {
	if err := validateKey(owner, filename); err != nil {
		return nil, err
	}

	chunk, err := domain.ParseChunk(blob)
	if err != nil {
		return nil, err
	}

	if err := f.checkFileSize(chunk, declaredTotal); err != nil {
		return nil, err
	}

	key := domain.UploadKey{Owner: owner, Filename: filename}
	unlock, err := f.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	complete, err := f.stat(ctx, owner, filename, domain.ArtifactKindComplete)
	if err != nil {
		return nil, err
	}
	if complete != nil {
		return f.acknowledgeRetry(ctx, owner, filename, complete.Size, chunk)
	}
	reclaimed, err := f.stat(ctx, owner, filename, domain.ArtifactKindReclaimed)
	if err != nil {
		return nil, err
	}
	if reclaimed != nil {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrAlreadyExists, filename, domain.ArtifactKindReclaimed)
	}

	meta, err := f.metadataRepo.CreateOrLoad(ctx, owner, filename)
	if err != nil {
		return nil, err
	}

	if declaredTotal != nil {
		if err := meta.DeclareTotal(*declaredTotal); err != nil {
			return nil, err
		}
	}
	if err := meta.AcceptsRange(chunk.Range()); err != nil {
		return nil, err
	}

	if err := f.chunkStore.Put(ctx, owner, filename, chunk.Range(), chunk.Payload); err != nil {
		return nil, fmt.Errorf("failed to stage chunk: %w", err)
	}

	now := time.Now().UTC()
	meta.RecordChunk(chunk.StartByte, chunk.EndByte, uint64(len(chunk.Payload)), now)
	if err := f.metadataRepo.Save(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to save upload metadata: %w", err)
	}

	if !meta.IsComplete() {
		view := domain.ViewFromMetadata(meta)
		return &domain.UploadStatus{
			Filename:         filename,
			Status:           domain.FileStatusPartial,
			BytesReceived:    view.BytesReceived,
			TotalBytes:       view.TotalBytes,
			NextExpectedByte: view.NextExpectedByte,
		}, nil
	}

	size, err := f.assembler.Assemble(ctx, meta)
	if err != nil {
		var missing *domain.MissingChunksError
		if errors.As(err, &missing) {
			f.forgetMissing(ctx, meta, missing.Ranges)
		}
		f.logger.Error("failed to assemble upload", "owner", owner, "filename", filename, "error", err)
		return nil, err
	}

	f.publish(ctx, domain.NewUploadEvent(domain.EventTypeUploadCompleted, owner, filename, size, now))

	return &domain.UploadStatus{
		Filename:         filename,
		Status:           domain.FileStatusComplete,
		BytesReceived:    size,
		TotalBytes:       &size,
		NextExpectedByte: size,
	}, nil
}

// forgetMissing drops records whose staged data is gone, so the upload
// reports the gap and the client can send those bytes again
func (f *fileService) forgetMissing(ctx context.Context, meta *domain.UploadMetadata, missing []domain.ByteRange) {
	for _, r := range missing {
		meta.RemoveChunk(r)
		// a staged blob of the wrong size would be read again on the next assembly
		if err := f.chunkStore.Delete(ctx, meta.Owner, meta.Filename, r); err != nil {
			f.logger.Error("failed to delete staged chunk", "owner", meta.Owner, "filename", meta.Filename, "range", r.Key(), "error", err)
		}
	}
	if err := f.metadataRepo.Save(ctx, meta); err != nil {
		f.logger.Error("failed to save upload metadata after incomplete assembly", "owner", meta.Owner, "filename", meta.Filename, "error", err)
	}
}

// checkFileSize rejects chunks and totals past the configured maximum file size
func (f *fileService) checkFileSize(chunk domain.Chunk, declaredTotal *uint64) error {
	if f.maxFileSize == 0 {
		return nil
	}
	if chunk.EndByte >= f.maxFileSize {
		return fmt.Errorf("%w: end %d beyond max file size %d", domain.ErrInvalidRange, chunk.EndByte, f.maxFileSize)
	}
	if declaredTotal != nil && *declaredTotal > f.maxFileSize {
		return fmt.Errorf("%w: declared %d, max file size %d", domain.ErrTotalMismatch, *declaredTotal, f.maxFileSize)
	}
	return nil
}

// acknowledgeRetry answers a chunk resent after its file completed. The
// complete status is returned only when the artifact holds the same bytes.
func (f *fileService) acknowledgeRetry(ctx context.Context, owner, filename string, size uint64, chunk domain.Chunk) (*domain.UploadStatus, error) {
	exists := fmt.Errorf("%w: %s is %s", domain.ErrAlreadyExists, filename, domain.ArtifactKindComplete)
	if chunk.EndByte >= size {
		return nil, exists
	}

	reader, _, err := f.artifacts.Open(ctx, owner, filename, domain.ArtifactKindComplete)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return nil, exists
	}
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	stored := make([]byte, len(chunk.Payload))
	if n, err := reader.ReadAt(stored, int64(chunk.StartByte)); n < len(stored) {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if !bytes.Equal(stored, chunk.Payload) {
		return nil, exists
	}

	return &domain.UploadStatus{
		Filename:         filename,
		Status:           domain.FileStatusComplete,
		BytesReceived:    size,
		TotalBytes:       &size,
		NextExpectedByte: size,
	}, nil
}
