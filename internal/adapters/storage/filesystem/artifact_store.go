package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chunk-transfer/internal/adapters/fsutil"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

const (
	filesDir     = "files"
	manifestsDir = "manifests"
	tmpDir       = "tmp"
	manifestExt  = ".json"
)

// ArtifactStore keeps artifacts as flat files:
//
//	<root>/<owner>/files/<filename>            complete
//	<root>/<owner>/files/<filename>.partial    reclaimed
//	<root>/<owner>/manifests/<filename>.partial.json
type ArtifactStore struct {
	root   string
	logger *slog.Logger
}

// NewArtifactStore returns ArtifactStore
func NewArtifactStore(root string, logger *slog.Logger) (*ArtifactStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &ArtifactStore{root: root, logger: logger}, nil
}

var _ port.ArtifactStore = (*ArtifactStore)(nil)

func storedName(filename string, kind domain.ArtifactKind) string {
	if kind == domain.ArtifactKindReclaimed {
		return filename + domain.PartialSuffix
	}
	return filename
}

func (s *ArtifactStore) path(owner, filename string, kind domain.ArtifactKind) string {
	return filepath.Join(s.root, owner, filesDir, storedName(filename, kind))
}

func (s *ArtifactStore) manifestPath(owner, filename string) string {
	return filepath.Join(s.root, owner, manifestsDir, filename+domain.PartialSuffix+manifestExt)
}

func (s *ArtifactStore) tmpDir(owner string) string {
	return filepath.Join(s.root, owner, tmpDir)
}

// Create opens a sparse temp file of the final size
func (s *ArtifactStore) Create(ctx context.Context, owner, filename string, kind domain.ArtifactKind, size uint64) (port.PendingArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := fsutil.CreateTemp(s.tmpDir(owner))
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = fsutil.Discard(f)
		return nil, err
	}

	return &pendingFile{
		store:    s,
		file:     f,
		owner:    owner,
		filename: filename,
		kind:     kind,
	}, nil
}

// Stat describes an artifact without opening it
func (s *ArtifactStore) Stat(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (*domain.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fi, err := os.Stat(s.path(owner, filename, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, owner, storedName(filename, kind))
	}
	if err != nil {
		return nil, err
	}
	return s.info(owner, filename, kind, fi), nil
}

// Open opens an artifact for random access reads
func (s *ArtifactStore) Open(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (port.ArtifactReader, *domain.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(s.path(owner, filename, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, owner, storedName(filename, kind))
	}
	if err != nil {
		return nil, nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, s.info(owner, filename, kind, fi), nil
}

// Delete removes an artifact and its manifest
func (s *ArtifactStore) Delete(ctx context.Context, owner, filename string, kind domain.ArtifactKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.path(owner, filename, kind))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, owner, storedName(filename, kind))
	}
	if err != nil {
		return err
	}

	if kind == domain.ArtifactKindReclaimed {
		if err := os.Remove(s.manifestPath(owner, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to delete manifest", "owner", owner, "filename", filename, "error", err)
		}
	}
	return nil
}

// List returns every artifact of an owner
func (s *ArtifactStore) List(ctx context.Context, owner string) ([]domain.ArtifactInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, owner, filesDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ArtifactInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// removed while listing
			continue
		}

		name, kind := entry.Name(), domain.ArtifactKindComplete
		if strings.HasSuffix(name, domain.PartialSuffix) {
			name, kind = strings.TrimSuffix(name, domain.PartialSuffix), domain.ArtifactKindReclaimed
		}
		infos = append(infos, *s.info(owner, name, kind, fi))
	}
	return infos, nil
}

func (s *ArtifactStore) info(owner, filename string, kind domain.ArtifactKind, fi os.FileInfo) *domain.ArtifactInfo {
	info := &domain.ArtifactInfo{
		Owner:      owner,
		Filename:   filename,
		Kind:       kind,
		Size:       uint64(fi.Size()),
		ModifiedAt: fi.ModTime().UTC(),
	}

	if kind == domain.ArtifactKindComplete {
		if info.Size > 0 {
			info.Ranges = []domain.ByteRange{{Start: 0, End: info.Size - 1}}
		}
		info.TotalBytes = &info.Size
		return info
	}

	manifest, err := s.readManifest(owner, filename)
	if err != nil {
		s.logger.Warn("reclaimed artifact without readable manifest", "owner", owner, "filename", filename, "error", err)
		if info.Size > 0 {
			info.Ranges = []domain.ByteRange{{Start: 0, End: info.Size - 1}}
		}
		return info
	}
	info.Ranges = manifest.Ranges
	info.TotalBytes = manifest.TotalBytes
	info.ReclaimedAt = &manifest.ReclaimedAt
	return info
}

func (s *ArtifactStore) readManifest(owner, filename string) (*domain.ReclaimManifest, error) {
	data, err := os.ReadFile(s.manifestPath(owner, filename))
	if err != nil {
		return nil, err
	}
	var manifest domain.ReclaimManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

type pendingFile struct {
	store    *ArtifactStore
	file     *os.File
	owner    string
	filename string
	kind     domain.ArtifactKind
}

func (p *pendingFile) WriteAt(b []byte, off int64) (int, error) {
	return p.file.WriteAt(b, off)
}

// Commit publishes the artifact. The manifest of a reclaimed artifact is
// written first so the artifact is never visible without it.
func (p *pendingFile) Commit(ctx context.Context, manifest *domain.ReclaimManifest) error {
	if err := ctx.Err(); err != nil {
		_ = fsutil.Discard(p.file)
		return err
	}

	if p.kind == domain.ArtifactKindReclaimed {
		if manifest == nil {
			_ = fsutil.Discard(p.file)
			return errors.New("reclaimed artifact requires a manifest")
		}
		data, err := json.Marshal(manifest)
		if err != nil {
			_ = fsutil.Discard(p.file)
			return err
		}
		if err := fsutil.WriteFile(p.store.tmpDir(p.owner), p.store.manifestPath(p.owner, p.filename), data); err != nil {
			_ = fsutil.Discard(p.file)
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	return fsutil.Commit(p.file, p.store.path(p.owner, p.filename, p.kind))
}

func (p *pendingFile) Abort() error {
	return fsutil.Discard(p.file)
}
