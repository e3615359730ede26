package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"chunk-transfer/internal/adapters/fsutil"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

const (
	uploadsDir    = "uploads"
	tmpDir        = "tmp"
	metadataExt   = ".json"
	metadataPerms = 0o755
)

type uploadMetadataRepository struct {
	root   string
	logger *slog.Logger
}

// NewUploadMetadataRepository stores one JSON document per upload under
// <root>/<owner>/uploads/<filename>.json
func NewUploadMetadataRepository(root string, logger *slog.Logger) (port.UploadMetadataRepository, error) {
	if err := os.MkdirAll(root, metadataPerms); err != nil {
		return nil, fmt.Errorf("failed to create metadata root: %w", err)
	}
	return &uploadMetadataRepository{root: root, logger: logger}, nil
}

func (r *uploadMetadataRepository) path(owner, filename string) string {
	return filepath.Join(r.root, owner, uploadsDir, filename+metadataExt)
}

// Load reads and validates a metadata document
func (r *uploadMetadataRepository) Load(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path(owner, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrUploadNotFound, owner, filename)
	}
	if err != nil {
		return nil, err
	}

	meta, err := decode(data)
	if err != nil {
		return nil, err
	}
	if meta.Owner != owner || meta.Filename != filename {
		return nil, fmt.Errorf("%w: record for %s stored as %s/%s", domain.ErrCorruptMetadata, meta.Key(), owner, filename)
	}
	return meta, nil
}

// CreateOrLoad returns the stored upload, or a new unsaved one
func (r *uploadMetadataRepository) CreateOrLoad(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error) {
	meta, err := r.Load(ctx, owner, filename)
	if errors.Is(err, domain.ErrUploadNotFound) {
		return domain.NewUploadMetadata(owner, filename, time.Now().UTC()), nil
	}
	return meta, err
}

// Save writes the document to a temp file and renames it over the old one
func (r *uploadMetadataRepository) Save(ctx context.Context, metadata *domain.UploadMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	return fsutil.WriteFile(filepath.Join(r.root, metadata.Owner, tmpDir), r.path(metadata.Owner, metadata.Filename), data)
}

// Delete removes a metadata document
func (r *uploadMetadataRepository) Delete(ctx context.Context, owner, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(r.path(owner, filename))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", domain.ErrUploadNotFound, owner, filename)
	}
	return err
}

// ListByOwner loads every upload of an owner sorted by filename.
// Corrupt documents are logged and skipped.
func (r *uploadMetadataRepository) ListByOwner(ctx context.Context, owner string) ([]domain.UploadMetadata, error) {
	names, err := r.filenames(owner)
	if err != nil {
		return nil, err
	}

	uploads := make([]domain.UploadMetadata, 0, len(names))
	for _, name := range names {
		meta, err := r.Load(ctx, owner, name)
		if errors.Is(err, domain.ErrUploadNotFound) {
			continue
		}
		if errors.Is(err, domain.ErrCorruptMetadata) {
			r.logger.Warn("skipping corrupt upload metadata", "owner", owner, "filename", name, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *meta)
	}
	return uploads, nil
}

// ListAll returns the keys of every stored document
func (r *uploadMetadataRepository) ListAll(ctx context.Context) ([]domain.UploadKey, error) {
	owners, err := os.ReadDir(r.root)
	if err != nil {
		return nil, err
	}

	var keys []domain.UploadKey
	for _, entry := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		names, err := r.filenames(entry.Name())
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			keys = append(keys, domain.UploadKey{Owner: entry.Name(), Filename: name})
		}
	}
	return keys, nil
}

func (r *uploadMetadataRepository) filenames(owner string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, owner, uploadsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metadataExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, metadataExt))
	}
	slices.Sort(names)
	return names, nil
}

func decode(data []byte) (*domain.UploadMetadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var meta domain.UploadMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptMetadata, err)
	}
	if meta.Chunks == nil {
		meta.Chunks = make(map[string]domain.ChunkRecord)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}
