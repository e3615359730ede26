package port

import (
	"context"
	"io"

	"chunk-transfer/internal/core/domain"
)

// ChunkStore is an interface to define staging storage of raw chunk payloads
type ChunkStore interface {
	Put(ctx context.Context, owner, filename string, r domain.ByteRange, payload []byte) error
	Get(ctx context.Context, owner, filename string, r domain.ByteRange) ([]byte, error)
	Delete(ctx context.Context, owner, filename string, r domain.ByteRange) error
	DeleteAll(ctx context.Context, owner, filename string) error
	Uploads(ctx context.Context) ([]domain.UploadKey, error)
}

// ArtifactReader gives random access to a stored artifact
type ArtifactReader interface {
	io.ReaderAt
	io.Closer
}

// PendingArtifact is an artifact being written. Nothing is visible until Commit.
// Reclaimed artifacts are committed together with their manifest.
type PendingArtifact interface {
	io.WriterAt
	Commit(ctx context.Context, manifest *domain.ReclaimManifest) error
	Abort() error
}

// ArtifactStore is an interface to define final artifact storage
type ArtifactStore interface {
	Create(ctx context.Context, owner, filename string, kind domain.ArtifactKind, size uint64) (PendingArtifact, error)
	Stat(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (*domain.ArtifactInfo, error)
	Open(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (ArtifactReader, *domain.ArtifactInfo, error)
	Delete(ctx context.Context, owner, filename string, kind domain.ArtifactKind) error
	List(ctx context.Context, owner string) ([]domain.ArtifactInfo, error)
}
