package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a type that represents the type of an upload event
type EventType string

const (
	EventTypeUploadCompleted EventType = "upload.completed"
	EventTypeUploadReclaimed EventType = "upload.reclaimed"
	EventTypeFileDeleted     EventType = "file.deleted"
)

// UploadEvent is published when an upload changes state
type UploadEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	Owner      string    `json:"owner"`
	Filename   string    `json:"filename"`
	Size       uint64    `json:"size"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUploadEvent creates an event with a fresh ID
func NewUploadEvent(eventType EventType, owner, filename string, size uint64, at time.Time) UploadEvent {
	return UploadEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Owner:      owner,
		Filename:   filename,
		Size:       size,
		OccurredAt: at,
	}
}
