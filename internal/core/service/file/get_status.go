package file

import (
	"context"
	"errors"

	"chunk-transfer/internal/core/domain"
)

// GetStatus computes the current view of a filename from the stores.
//
// Metadata is read before the artifacts: assembly and reclaim commit the
// artifact before deleting the metadata, so a filename moving to a terminal
// state is always seen in one state or the other, never as pending.
func (f *fileService) GetStatus(ctx context.Context, owner, filename string) (*domain.FileView, error) {
	if err := validateKey(owner, filename); err != nil {
		return nil, err
	}

	meta, loadErr := f.metadataRepo.Load(ctx, owner, filename)

	complete, err := f.stat(ctx, owner, filename, domain.ArtifactKindComplete)
	if err != nil {
		return nil, err
	}
	if complete != nil {
		view := domain.ViewFromArtifact(*complete)
		return &view, nil
	}

	if loadErr == nil {
		view := domain.ViewFromMetadata(meta)
		return &view, nil
	}
	if !errors.Is(loadErr, domain.ErrUploadNotFound) {
		return nil, loadErr
	}

	reclaimed, err := f.stat(ctx, owner, filename, domain.ArtifactKindReclaimed)
	if err != nil {
		return nil, err
	}
	if reclaimed != nil {
		view := domain.ViewFromArtifact(*reclaimed)
		return &view, nil
	}

	view := domain.PendingView(filename)
	return &view, nil
}
