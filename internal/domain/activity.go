package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityKind classifies an activity record.
type ActivityKind string

const (
	// ActivityKind_BatchCompleted summarizes a finished import batch.
	ActivityKind_BatchCompleted ActivityKind = "BATCH_COMPLETED"
)

// ActivityRecord is one entry in the seller-visible activity feed.
type ActivityRecord struct {
	ID        uuid.UUID
	SellerID  uuid.UUID
	Kind      ActivityKind
	Message   string
	CreatedAt time.Time
}

// ActivityRepository persists activity records.
type ActivityRepository interface {
	// Record stores one activity record.
	Record(ctx context.Context, record ActivityRecord) error
	// ListRecent returns up to limit records for a seller, newest first.
	ListRecent(ctx context.Context, sellerID uuid.UUID, limit int) ([]ActivityRecord, error)
}
