package file_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"chunk-transfer/internal/adapters/eventbroker/noop"
	"chunk-transfer/internal/adapters/locker"
	fsrepo "chunk-transfer/internal/adapters/repository/filesystem"
	fsstorage "chunk-transfer/internal/adapters/storage/filesystem"
	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
	"chunk-transfer/internal/core/service/file"

	"github.com/stretchr/testify/require"
)

type stores struct {
	repo      port.UploadMetadataRepository
	chunks    *fsstorage.ChunkStore
	artifacts *fsstorage.ArtifactStore
	locker    *locker.KeyedLocker
}

type testOptions struct {
	publisher   port.EventPublisher
	artifacts   func(port.ArtifactStore) port.ArtifactStore
	maxFileSize config.ByteSize
}

// newTestService wires the service on top of the filesystem adapters
func newTestService(t *testing.T) (port.FileService, stores) {
	return newTestServiceWith(t, testOptions{})
}

func newTestServiceWith(t *testing.T, opts testOptions) (port.FileService, stores) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := t.TempDir()

	repo, err := fsrepo.NewUploadMetadataRepository(root, logger)
	require.NoError(t, err)
	chunks, err := fsstorage.NewChunkStore(t.TempDir(), logger)
	require.NoError(t, err)
	artifacts, err := fsstorage.NewArtifactStore(root, logger)
	require.NoError(t, err)
	keyed := locker.NewKeyedLocker()

	var artifactStore port.ArtifactStore = artifacts
	if opts.artifacts != nil {
		artifactStore = opts.artifacts(artifacts)
	}
	publisher := opts.publisher
	if publisher == nil {
		publisher = noop.NewPublisher(logger)
	}

	cfg := config.StorageConfig{BlockSize: 4, MaxFileSize: opts.maxFileSize}
	service := file.NewFileService(repo, chunks, artifactStore, keyed, publisher, cfg, logger)
	return service, stores{repo: repo, chunks: chunks, artifacts: artifacts, locker: keyed}
}

// interleavedArtifacts runs after once, right after the next Stat of a
// complete artifact or List returns
type interleavedArtifacts struct {
	port.ArtifactStore
	armed bool
	after func()
}

func (a *interleavedArtifacts) fire() {
	if a.armed {
		a.armed = false
		a.after()
	}
}

func (a *interleavedArtifacts) Stat(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (*domain.ArtifactInfo, error) {
	info, err := a.ArtifactStore.Stat(ctx, owner, filename, kind)
	if kind == domain.ArtifactKindComplete {
		a.fire()
	}
	return info, err
}

func (a *interleavedArtifacts) List(ctx context.Context, owner string) ([]domain.ArtifactInfo, error) {
	infos, err := a.ArtifactStore.List(ctx, owner)
	a.fire()
	return infos, err
}

type testService struct {
	service port.FileService
	stores  stores
}

func readAll(t *testing.T, download *domain.Download) string {
	t.Helper()
	defer download.Stream.Close()
	var buf []byte
	for {
		block, err := download.Stream.Next()
		if err == io.EOF {
			return string(buf)
		}
		require.NoError(t, err)
		buf = append(buf, block...)
	}
}

func ptr[T any](v T) *T {
	return &v
}

var (
	ctx = context.Background()
	now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)
