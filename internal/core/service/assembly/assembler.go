package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

// Assembler drains staged chunks into artifacts. Callers must hold the
// upload lock for the whole call.
type Assembler struct {
	metadataRepo port.UploadMetadataRepository
	chunkStore   port.ChunkStore
	artifacts    port.ArtifactStore
	maxFileSize  uint64
	logger       *slog.Logger
}

// NewAssembler creates a new Assembler. A zero maxFileSize disables the bound
// on reclaimed chunk offsets.
func NewAssembler(metadataRepo port.UploadMetadataRepository, chunkStore port.ChunkStore, artifacts port.ArtifactStore, maxFileSize uint64, logger *slog.Logger) *Assembler {
	return &Assembler{
		metadataRepo: metadataRepo,
		chunkStore:   chunkStore,
		artifacts:    artifacts,
		maxFileSize:  maxFileSize,
		logger:       logger,
	}
}

// Assemble writes a complete upload into its artifact, then deletes the
// staging chunks and the metadata record. It returns the artifact size.
// If any referenced chunk is missing nothing is published and a
// *domain.MissingChunksError is returned.
func (a *Assembler) Assemble(ctx context.Context, meta *domain.UploadMetadata) (uint64, error) {
	if !meta.IsComplete() {
		return 0, fmt.Errorf("%w: %s does not cover its total size", domain.ErrAssemblyIncomplete, meta.Key())
	}
	size := *meta.TotalBytes

	pending, err := a.artifacts.Create(ctx, meta.Owner, meta.Filename, domain.ArtifactKindComplete, size)
	if err != nil {
		return 0, fmt.Errorf("failed to create artifact: %w", err)
	}

	_, missing, err := a.writeChunks(ctx, pending, meta, meta.SortedChunks(), false)
	if err == nil && len(missing) > 0 {
		err = &domain.MissingChunksError{Ranges: missing}
	}
	if err != nil {
		if abortErr := pending.Abort(); abortErr != nil {
			a.logger.Error("failed to abort artifact", "upload", meta.Key().String(), "error", abortErr)
		}
		return 0, err
	}

	if err := pending.Commit(ctx, nil); err != nil {
		return 0, fmt.Errorf("failed to commit artifact: %w", err)
	}

	a.release(ctx, meta)
	a.logger.Info("upload assembled", "owner", meta.Owner, "filename", meta.Filename, "size", size, "chunks", len(meta.Chunks))
	return size, nil
}

// Reclaim turns an abandoned upload into a partial artifact holding the
// chunks that can still be read, then deletes staging and metadata.
// Chunks ending past the max file size are dropped.
// It returns nil when no chunk could be recovered; the upload is released
// either way.
func (a *Assembler) Reclaim(ctx context.Context, meta *domain.UploadMetadata, now time.Time) (*domain.ReclaimManifest, error) {
	records := a.withinMaxFileSize(meta)

	var size uint64
	for _, record := range records {
		if record.EndByte+1 > size {
			size = record.EndByte + 1
		}
	}

	if size == 0 {
		a.release(ctx, meta)
		return nil, nil
	}

	pending, err := a.artifacts.Create(ctx, meta.Owner, meta.Filename, domain.ArtifactKindReclaimed, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create partial artifact: %w", err)
	}

	written, missing, err := a.writeChunks(ctx, pending, meta, records, true)
	if err != nil {
		if abortErr := pending.Abort(); abortErr != nil {
			a.logger.Error("failed to abort partial artifact", "upload", meta.Key().String(), "error", abortErr)
		}
		return nil, err
	}
	if len(missing) > 0 {
		a.logger.Warn("reclaiming upload with missing chunks", "owner", meta.Owner, "filename", meta.Filename, "missing", len(missing))
	}

	if len(written) == 0 {
		if abortErr := pending.Abort(); abortErr != nil {
			a.logger.Error("failed to abort partial artifact", "upload", meta.Key().String(), "error", abortErr)
		}
		a.release(ctx, meta)
		return nil, nil
	}

	manifest := &domain.ReclaimManifest{
		Filename:    meta.Filename,
		Ranges:      domain.MergeRanges(written),
		TotalBytes:  meta.TotalBytes,
		ReclaimedAt: now,
	}
	if err := pending.Commit(ctx, manifest); err != nil {
		return nil, fmt.Errorf("failed to commit partial artifact: %w", err)
	}

	a.release(ctx, meta)
	a.logger.Info("stale upload reclaimed", "owner", meta.Owner, "filename", meta.Filename+domain.PartialSuffix, "bytes", domain.BytesReceived(manifest.Ranges))
	return manifest, nil
}

// writeChunks copies every chunk record at its own offset, in ascending
// start order. A chunk that is gone or whose size no longer matches its
// record is reported as missing; unless tolerateMissing is set, nothing
// more is written after the first one but every record is still checked.
func (a *Assembler) writeChunks(ctx context.Context, pending port.PendingArtifact, meta *domain.UploadMetadata, records []domain.ChunkRecord, tolerateMissing bool) ([]domain.ByteRange, []domain.ByteRange, error) {
	var written, missing []domain.ByteRange

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		r := record.Range()
		data, err := a.chunkStore.Get(ctx, meta.Owner, meta.Filename, r)
		if errors.Is(err, domain.ErrChunkMissing) {
			missing = append(missing, r)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read chunk %s: %w", r.Key(), err)
		}
		if uint64(len(data)) != record.Size {
			a.logger.Error("staged chunk size mismatch", "upload", meta.Key().String(), "range", r.Key(), "size", len(data), "expected", record.Size)
			missing = append(missing, r)
			continue
		}

		if len(missing) > 0 && !tolerateMissing {
			continue
		}
		if _, err := pending.WriteAt(data, int64(record.StartByte)); err != nil {
			return nil, nil, fmt.Errorf("failed to write chunk %s: %w", r.Key(), err)
		}
		written = append(written, r)
	}

	return written, missing, nil
}

// withinMaxFileSize returns the sorted chunk records a partial artifact can hold
func (a *Assembler) withinMaxFileSize(meta *domain.UploadMetadata) []domain.ChunkRecord {
	sorted := meta.SortedChunks()
	if a.maxFileSize == 0 {
		return sorted
	}

	records := make([]domain.ChunkRecord, 0, len(sorted))
	for _, record := range sorted {
		if record.EndByte >= a.maxFileSize {
			a.logger.Warn("dropping chunk past max file size", "upload", meta.Key().String(), "range", record.Range().Key(), "max_file_size", a.maxFileSize)
			continue
		}
		records = append(records, record)
	}
	return records
}

// release deletes the metadata record first so the upload leaves the
// partial state at once, then its staging chunks. Failures are logged:
// leftovers are picked up by the cleanup sweep.
func (a *Assembler) release(ctx context.Context, meta *domain.UploadMetadata) {
	if err := a.metadataRepo.Delete(ctx, meta.Owner, meta.Filename); err != nil && !errors.Is(err, domain.ErrUploadNotFound) {
		a.logger.Error("failed to delete upload metadata", "upload", meta.Key().String(), "error", err)
	}
	if err := a.chunkStore.DeleteAll(ctx, meta.Owner, meta.Filename); err != nil {
		a.logger.Error("failed to delete staged chunks", "upload", meta.Key().String(), "error", err)
	}
}
