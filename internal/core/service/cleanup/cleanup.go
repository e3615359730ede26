package cleanup

import (
	"log/slog"
	"time"

	"chunk-transfer/internal/core/port"
	"chunk-transfer/internal/core/service/assembly"
)

type cleanupService struct {
	metadataRepo port.UploadMetadataRepository
	chunkStore   port.ChunkStore
	artifacts    port.ArtifactStore
	locker       port.UploadLocker
	publisher    port.EventPublisher
	assembler    *assembly.Assembler
	staleAfter   time.Duration
	logger       *slog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	metadataRepo port.UploadMetadataRepository,
	chunkStore port.ChunkStore,
	artifacts port.ArtifactStore,
	locker port.UploadLocker,
	publisher port.EventPublisher,
	staleAfter time.Duration,
	maxFileSize uint64,
	logger *slog.Logger,
) port.CleanupService {
	return &cleanupService{
		metadataRepo: metadataRepo,
		chunkStore:   chunkStore,
		artifacts:    artifacts,
		locker:       locker,
		publisher:    publisher,
		assembler:    assembly.NewAssembler(metadataRepo, chunkStore, artifacts, maxFileSize, logger),
		staleAfter:   staleAfter,
		logger:       logger,
	}
}
