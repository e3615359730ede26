package file

import (
	"context"
	"errors"
	"time"

	"chunk-transfer/internal/core/domain"
)

// DeleteFile removes every trace of a filename: its complete artifact, its
// reclaimed artifact and an upload still in progress. It reports whether
// anything existed.
func (f *fileService) DeleteFile(ctx context.Context, owner, filename string) (bool, error) {
	if err := validateKey(owner, filename); err != nil {
		return false, err
	}

	unlock, err := f.locker.Lock(ctx, domain.UploadKey{Owner: owner, Filename: filename})
	if err != nil {
		return false, err
	}
	defer unlock()

	deleted := false
	for _, kind := range []domain.ArtifactKind{domain.ArtifactKindComplete, domain.ArtifactKindReclaimed} {
		err := f.artifacts.Delete(ctx, owner, filename, kind)
		if errors.Is(err, domain.ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted = true
	}

	err = f.metadataRepo.Delete(ctx, owner, filename)
	switch {
	case err == nil:
		deleted = true
	case errors.Is(err, domain.ErrUploadNotFound):
	default:
		return deleted, err
	}

	if err := f.chunkStore.DeleteAll(ctx, owner, filename); err != nil {
		return deleted, err
	}

	if deleted {
		f.logger.Info("file deleted", "owner", owner, "filename", filename)
		f.publish(ctx, domain.NewUploadEvent(domain.EventTypeFileDeleted, owner, filename, 0, time.Now().UTC()))
	}

	return deleted, nil
}
