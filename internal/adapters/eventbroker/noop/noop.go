package noop

import (
	"context"
	"log/slog"

	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"
)

// Publisher drops events. Used when no broker is configured.
type Publisher struct {
	logger *slog.Logger
}

var _ port.EventPublisher = (*Publisher)(nil)

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(_ context.Context, event domain.UploadEvent) error {
	p.logger.Debug("event dropped", "type", event.Type, "owner", event.Owner, "filename", event.Filename)
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
