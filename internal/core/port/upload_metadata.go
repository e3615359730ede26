package port

import (
	"context"

	"chunk-transfer/internal/core/domain"
)

// UploadMetadataRepository is an interface to interact with upload metadata storage
type UploadMetadataRepository interface {
	Load(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error)
	CreateOrLoad(ctx context.Context, owner, filename string) (*domain.UploadMetadata, error)
	Save(ctx context.Context, metadata *domain.UploadMetadata) error
	Delete(ctx context.Context, owner, filename string) error
	ListByOwner(ctx context.Context, owner string) ([]domain.UploadMetadata, error)
	ListAll(ctx context.Context) ([]domain.UploadKey, error)
}

// UploadLocker serializes writers of the same upload
type UploadLocker interface {
	// Lock blocks until the upload is held or ctx is done
	Lock(ctx context.Context, key domain.UploadKey) (unlock func(), err error)
	// TryLock acquires the upload only if nobody holds it
	TryLock(key domain.UploadKey) (unlock func(), ok bool)
}
