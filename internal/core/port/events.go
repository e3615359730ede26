package port

import (
	"context"

	"chunk-transfer/internal/core/domain"
)

// EventPublisher is an interface to define an upload event publisher (nats, ...)
type EventPublisher interface {
	Publish(ctx context.Context, event domain.UploadEvent) error
	Close() error
}
