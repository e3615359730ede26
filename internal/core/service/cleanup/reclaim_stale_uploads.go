package cleanup

import (
	"context"
	"errors"
	"time"

	"chunk-transfer/internal/core/domain"
)

// ReclaimStaleUploads turns every upload untouched since now-staleAfter into a
// reclaimed partial artifact. Uploads held by a writer are skipped until the
// next sweep; a failure on one upload does not stop the sweep.
func (c *cleanupService) ReclaimStaleUploads(ctx context.Context, now time.Time) error {

	keys, err := c.metadataRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	cutoff := now.Add(-c.staleAfter)
	reclaimed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, reclaimErr := c.reclaim(ctx, key, cutoff, now)
		if reclaimErr != nil {
			c.logger.Error("failed to reclaim stale upload", "owner", key.Owner, "filename", key.Filename, "error", reclaimErr)
			continue
		}
		if ok {
			reclaimed++
		}
	}

	c.logger.Info("reclaim stale uploads completed", "scanned", len(keys), "reclaimed", reclaimed)
	return nil
}

func (c *cleanupService) reclaim(ctx context.Context, key domain.UploadKey, cutoff, now time.Time) (bool, error) {
	unlock, ok := c.locker.TryLock(key)
	if !ok {
		c.logger.Debug("upload busy, skipping", "owner", key.Owner, "filename", key.Filename)
		return false, nil
	}
	defer unlock()

	meta, err := c.metadataRepo.Load(ctx, key.Owner, key.Filename)
	if errors.Is(err, domain.ErrUploadNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !meta.IsStale(cutoff) {
		return false, nil
	}

	// an assembly that committed but failed to release its staging
	_, err = c.artifacts.Stat(ctx, key.Owner, key.Filename, domain.ArtifactKindComplete)
	if err == nil {
		c.logger.Warn("releasing leftovers of an assembled upload", "owner", key.Owner, "filename", key.Filename)
		if err := c.metadataRepo.Delete(ctx, key.Owner, key.Filename); err != nil {
			return false, err
		}
		return false, c.chunkStore.DeleteAll(ctx, key.Owner, key.Filename)
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) {
		return false, err
	}

	manifest, err := c.assembler.Reclaim(ctx, meta, now)
	if err != nil {
		return false, err
	}
	if manifest == nil {
		c.logger.Warn("stale upload had no readable chunk, released", "owner", key.Owner, "filename", key.Filename)
		return false, nil
	}

	event := domain.NewUploadEvent(domain.EventTypeUploadReclaimed, key.Owner, key.Filename, domain.BytesReceived(manifest.Ranges), now)
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Error("failed to publish upload event", "type", event.Type, "owner", key.Owner, "filename", key.Filename, "error", err)
	}
	return true, nil
}
