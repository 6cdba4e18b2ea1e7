package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MatchType classifies how an import row was matched against the catalog.
type MatchType string

const (
	// MatchType_SKU is an exact SKU match.
	MatchType_SKU MatchType = "SKU"
	// MatchType_Barcode is an exact barcode match.
	MatchType_Barcode MatchType = "BARCODE"
	// MatchType_Title is a fuzzy title similarity match.
	MatchType_Title MatchType = "TITLE"
	// MatchType_None is the placeholder for rows with no plausible match.
	MatchType_None MatchType = "NONE"
)

// ReviewStatus is the review routing derived from match confidence.
type ReviewStatus string

const (
	// ReviewStatus_AutoMatched needs no human attention.
	ReviewStatus_AutoMatched ReviewStatus = "AUTO_MATCHED"
	// ReviewStatus_NeedsReview is plausible but ambiguous.
	ReviewStatus_NeedsReview ReviewStatus = "NEEDS_REVIEW"
	// ReviewStatus_NoMatch goes to manual triage.
	ReviewStatus_NoMatch ReviewStatus = "NO_MATCH"
)

// Deterministic identifier confidences. Barcodes score slightly below SKUs
// because they are occasionally reused or mistyped across listings.
const (
	SKUMatchConfidence     = 1.0
	BarcodeMatchConfidence = 0.95
)

// RawImportItem is one bulk-import row: the original cells plus normalized
// fields. Immutable once created; consumed exactly once by the batch
// matching pipeline.
type RawImportItem struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	RowNumber   int
	SKU         string
	Barcode     string
	Title       string
	Price       *float64
	Quantity    *int
	PurchasedAt *time.Time
	Raw         map[string]string
	CreatedAt   time.Time
}

// MatchCandidate is the persisted outcome of matching one RawImportItem.
// Deterministic matches yield exactly one row; ambiguous fuzzy matches yield
// one row per plausible candidate.
type MatchCandidate struct {
	ID           uuid.UUID
	ImportItemID uuid.UUID
	VariantID    *uuid.UUID
	MatchType    MatchType
	Confidence   float64
	Status       ReviewStatus
	Explanation  string
	CreatedAt    time.Time
}

// BatchStatus is the lifecycle state of an import batch.
type BatchStatus string

const (
	// BatchStatus_Pending means rows are stored but matching has not started.
	BatchStatus_Pending BatchStatus = "PENDING"
	// BatchStatus_Running means the matching cascade is in progress.
	BatchStatus_Running BatchStatus = "RUNNING"
	// BatchStatus_Completed means every row was consumed.
	BatchStatus_Completed BatchStatus = "COMPLETED"
)

// ImportBatch tracks one bulk import and its matching progress.
type ImportBatch struct {
	ID             uuid.UUID
	SellerID       uuid.UUID
	SourceName     string
	Status         BatchStatus
	TotalRows      int
	ProcessedRows  int
	MatchedCount   int
	AmbiguousCount int
	NoMatchCount   int
	Progress       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImportRepository persists import batches, their rows and match outcomes.
type ImportRepository interface {
	// CreateBatch stores a new batch header.
	CreateBatch(ctx context.Context, batch ImportBatch) error
	// AddItems stores the parsed rows of a batch.
	AddItems(ctx context.Context, items []RawImportItem) error
	// GetBatch returns a batch header by id.
	GetBatch(ctx context.Context, id uuid.UUID) (ImportBatch, bool, error)
	// ListItems returns a batch's rows in row order.
	ListItems(ctx context.Context, batchID uuid.UUID) ([]RawImportItem, error)
	// UpdateBatchProgress persists the batch counters and status.
	UpdateBatchProgress(ctx context.Context, batch ImportBatch) error
	// SaveMatchCandidates stores the match outcomes for one row.
	SaveMatchCandidates(ctx context.Context, candidates []MatchCandidate) error
	// ListMatchCandidates returns all match outcomes of a batch.
	ListMatchCandidates(ctx context.Context, batchID uuid.UUID) ([]MatchCandidate, error)
}
