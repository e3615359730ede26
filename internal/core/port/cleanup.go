package port

import (
	"context"
	"time"
)

// CleanupService is service that reclaims abandoned uploads
type CleanupService interface {
	ReclaimStaleUploads(ctx context.Context, now time.Time) error
	PurgeOrphanedChunks(ctx context.Context) error
}
