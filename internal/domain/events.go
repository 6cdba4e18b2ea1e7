package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event.
type EventType string

const (
	// EventType_BATCH_UPLOADED signals that a bulk import's rows are stored
	// and ready for matching.
	EventType_BATCH_UPLOADED EventType = "IMPORT_BATCH.UPLOADED"
	// EventType_BATCH_COMPLETED signals that the matching cascade finished.
	EventType_BATCH_COMPLETED EventType = "IMPORT_BATCH.COMPLETED"
)

// ImportBatchEvent is a domain event about one import batch.
type ImportBatchEvent struct {
	Type      EventType
	BatchID   uuid.UUID
	SellerID  uuid.UUID
	Processed int
	Matched   int
	Ambiguous int
	NoMatch   int
	CreatedAt time.Time
}

// BatchEventPublisher publishes batch events to the message broker.
type BatchEventPublisher interface {
	PublishEvent(ctx context.Context, event OutboxEvent) error
}
