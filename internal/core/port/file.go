package port

import (
	"context"

	"chunk-transfer/internal/core/domain"
)

// FileService is an interface to define the chunked transfer service
type FileService interface {
	PutChunk(ctx context.Context, owner, filename string, blob []byte, declaredTotal *uint64) (*domain.UploadStatus, error)
	GetStatus(ctx context.Context, owner, filename string) (*domain.FileView, error)
	OpenDownload(ctx context.Context, owner, filename string, rng *domain.RangeRequest) (*domain.Download, error)
	ListFiles(ctx context.Context, owner string) ([]domain.FileView, error)
	DeleteFile(ctx context.Context, owner, filename string) (bool, error)
}
