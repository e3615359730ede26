package file

import (
	"context"
	"errors"
	"log/slog"

	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
	"chunk-transfer/internal/core/service/assembly"
)

type fileService struct {
	metadataRepo port.UploadMetadataRepository
	chunkStore   port.ChunkStore
	artifacts    port.ArtifactStore
	locker       port.UploadLocker
	publisher    port.EventPublisher
	assembler    *assembly.Assembler
	storageCfg   config.StorageConfig
	maxFileSize  uint64
	logger       *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	metadataRepo port.UploadMetadataRepository,
	chunkStore port.ChunkStore,
	artifacts port.ArtifactStore,
	locker port.UploadLocker,
	publisher port.EventPublisher,
	cfg config.StorageConfig,
	logger *slog.Logger,
) port.FileService {
	return &fileService{
		metadataRepo: metadataRepo,
		chunkStore:   chunkStore,
		artifacts:    artifacts,
		locker:       locker,
		publisher:    publisher,
		assembler:    assembly.NewAssembler(metadataRepo, chunkStore, artifacts, uint64(cfg.MaxFileSize), logger),
		storageCfg:   cfg,
		maxFileSize:  uint64(cfg.MaxFileSize),
		logger:       logger,
	}
}

func validateKey(owner, filename string) error {
	if err := domain.ValidateOwner(owner); err != nil {
		return err
	}
	return domain.ValidateFilename(filename)
}

// stat returns nil when the artifact does not exist
func (f *fileService) stat(ctx context.Context, owner, filename string, kind domain.ArtifactKind) (*domain.ArtifactInfo, error) {
	info, err := f.artifacts.Stat(ctx, owner, filename, kind)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (f *fileService) publish(ctx context.Context, event domain.UploadEvent) {
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Error("failed to publish upload event", "type", event.Type, "owner", event.Owner, "filename", event.Filename, "error", err)
	}
}
