package file

import (
	"context"
	"errors"
	"fmt"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

// OpenDownload opens a byte range of a complete artifact, or of the
// reclaimed partial artifact when the upload was abandoned.
// The caller must close the returned stream.
func (f *fileService) OpenDownload(ctx context.Context, owner, filename string, rng *domain.RangeRequest) (*domain.Download, error) {
	if err := validateKey(owner, filename); err != nil {
		return nil, err
	}

	reader, info, err := f.openArtifact(ctx, owner, filename)
	if err != nil {
		return nil, err
	}

	start, length, err := domain.ResolveRange(info.Size, rng)
	if err != nil {
		if closeErr := reader.Close(); closeErr != nil {
			f.logger.Error("failed to close artifact", "owner", owner, "filename", filename, "error", closeErr)
		}
		return nil, err
	}

	return &domain.Download{
		Filename:  filename,
		Size:      info.Size,
		Start:     start,
		Length:    length,
		Reclaimed: info.Kind == domain.ArtifactKindReclaimed,
		Stream:    domain.NewRangeStream(reader, reader, start, length, f.storageCfg.BlockSize.Int()),
	}, nil
}

func (f *fileService) openArtifact(ctx context.Context, owner, filename string) (port.ArtifactReader, *domain.ArtifactInfo, error) {
	reader, info, err := f.artifacts.Open(ctx, owner, filename, domain.ArtifactKindComplete)
	if err == nil {
		return reader, info, nil
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) {
		return nil, nil, err
	}

	reader, info, err = f.artifacts.Open(ctx, owner, filename, domain.ArtifactKindReclaimed)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return nil, nil, fmt.Errorf("%w: %s has no artifact", domain.ErrNotDownloadable, filename)
	}
	if err != nil {
		return nil, nil, err
	}
	return reader, info, nil
}
