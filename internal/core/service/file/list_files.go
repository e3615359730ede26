package file

import (
	"context"
	"slices"
	"strings"

	"chunk-transfer/internal/core/domain"
)

// ListFiles returns one view per known filename of the owner, sorted by name.
// A complete artifact wins over an upload in progress, which wins over a
// reclaimed artifact.
func (f *fileService) ListFiles(ctx context.Context, owner string) ([]domain.FileView, error) {
	if err := domain.ValidateOwner(owner); err != nil {
		return nil, err
	}

	// uploads first, so one that completes in between shows up as an artifact
	uploads, err := f.metadataRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	infos, err := f.artifacts.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	views := make(map[string]domain.FileView, len(infos)+len(uploads))
	for _, info := range infos {
		if info.Kind == domain.ArtifactKindReclaimed {
			continue
		}
		views[info.Filename] = domain.ViewFromArtifact(info)
	}
	for i := range uploads {
		if _, ok := views[uploads[i].Filename]; ok {
			continue
		}
		views[uploads[i].Filename] = domain.ViewFromMetadata(&uploads[i])
	}
	for _, info := range infos {
		if info.Kind != domain.ArtifactKindReclaimed {
			continue
		}
		if _, ok := views[info.Filename]; ok {
			continue
		}
		views[info.Filename] = domain.ViewFromArtifact(info)
	}

	files := make([]domain.FileView, 0, len(views))
	for _, view := range views {
		files = append(files, view)
	}
	slices.SortFunc(files, func(a, b domain.FileView) int {
		return strings.Compare(a.Filename, b.Filename)
	})

	return files, nil
}
