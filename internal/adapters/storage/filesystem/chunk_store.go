package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"chunk-transfer/internal/adapters/fsutil"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

// ChunkStore stages chunk payloads as <root>/<owner>/<filename>/<start>-<end>
type ChunkStore struct {
	root   string
	logger *slog.Logger
}

// NewChunkStore returns ChunkStore
func NewChunkStore(root string, logger *slog.Logger) (*ChunkStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging root: %w", err)
	}
	return &ChunkStore{root: root, logger: logger}, nil
}

var _ port.ChunkStore = (*ChunkStore)(nil)

func (s *ChunkStore) dir(owner, filename string) string {
	return filepath.Join(s.root, owner, filename)
}

func (s *ChunkStore) path(owner, filename string, r domain.ByteRange) string {
	return filepath.Join(s.dir(owner, filename), r.Key())
}

// Put writes a payload atomically, replacing a previous copy of the same range
func (s *ChunkStore) Put(ctx context.Context, owner, filename string, r domain.ByteRange, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.dir(owner, filename)
	return fsutil.WriteFile(dir, s.path(owner, filename, r), payload)
}

// Get reads a staged payload
func (s *ChunkStore) Get(ctx context.Context, owner, filename string, r domain.ByteRange) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(owner, filename, r))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s %s", domain.ErrChunkMissing, owner, filename, r.Key())
	}
	return data, err
}

// Delete removes one staged payload. Missing payloads are ignored.
func (s *ChunkStore) Delete(ctx context.Context, owner, filename string, r domain.ByteRange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(owner, filename, r))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DeleteAll removes the staging directory of an upload
func (s *ChunkStore) DeleteAll(ctx context.Context, owner, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir(owner, filename)); err != nil {
		return err
	}
	fsutil.RemoveEmptyDirs(filepath.Join(s.root, owner), s.root)
	return nil
}

// Uploads lists every (owner, filename) with a staging directory
func (s *ChunkStore) Uploads(ctx context.Context) ([]domain.UploadKey, error) {
	owners, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	var keys []domain.UploadKey
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !owner.IsDir() {
			continue
		}
		uploads, err := os.ReadDir(filepath.Join(s.root, owner.Name()))
		if err != nil {
			s.logger.Warn("failed to read staging directory", "owner", owner.Name(), "error", err)
			continue
		}
		for _, upload := range uploads {
			if !upload.IsDir() {
				continue
			}
			keys = append(keys, domain.UploadKey{Owner: owner.Name(), Filename: upload.Name()})
		}
	}
	return keys, nil
}
