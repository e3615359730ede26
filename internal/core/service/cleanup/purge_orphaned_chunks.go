package cleanup

import (
	"context"
	"errors"

	"chunk-transfer/internal/core/domain"
)

// PurgeOrphanedChunks deletes staged chunks that no upload metadata refers to.
// They are left behind when a release fails halfway.
func (c *cleanupService) PurgeOrphanedChunks(ctx context.Context) error {

	keys, err := c.chunkStore.Uploads(ctx)
	if err != nil {
		return err
	}

	purged := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		unlock, ok := c.locker.TryLock(key)
		if !ok {
			continue
		}

		_, loadErr := c.metadataRepo.Load(ctx, key.Owner, key.Filename)
		if errors.Is(loadErr, domain.ErrUploadNotFound) {
			if err := c.chunkStore.DeleteAll(ctx, key.Owner, key.Filename); err != nil {
				c.logger.Error("failed to purge orphaned chunks", "owner", key.Owner, "filename", key.Filename, "error", err)
			} else {
				purged++
			}
		} else if loadErr != nil && !errors.Is(loadErr, domain.ErrCorruptMetadata) {
			c.logger.Error("failed to load upload metadata", "owner", key.Owner, "filename", key.Filename, "error", loadErr)
		}
		unlock()
	}

	c.logger.Info("purge orphaned chunks completed", "scanned", len(keys), "purged", purged)
	return nil
}
