package usecases

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// fuzzyLookupLimit bounds how many title candidates one row can pull in.
const fuzzyLookupLimit = 5

// RunImportBatch defines the interface for the batch matching pipeline: it
// consumes every stored row of a batch through the SKU -> barcode -> fuzzy
// title cascade and persists the outcomes.
type RunImportBatch interface {
	Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error)
}

// RunImportBatchImpl is the implementation of the RunImportBatch use case.
type RunImportBatchImpl struct {
	uow          domain.UnitOfWork
	timeProvider domain.CurrentTimeProvider
	policy       domain.ScoringPolicy
	logger       *log.Logger
	createUUID   func() uuid.UUID
}

// NewRunImportBatchImpl creates a new instance of RunImportBatchImpl.
func NewRunImportBatchImpl(
	uow domain.UnitOfWork,
	timeProvider domain.CurrentTimeProvider,
	policy domain.ScoringPolicy,
	logger *log.Logger,
) RunImportBatchImpl {
	return RunImportBatchImpl{
		uow:          uow,
		timeProvider: timeProvider,
		policy:       policy,
		logger:       logger,
		createUUID:   uuid.New,
	}
}

// Execute runs the cascade over every row of the batch. Rows are processed
// sequentially with monotone progress updates; a failing row is logged and
// counted as no-match so processed always equals matched + ambiguous +
// noMatch. Cancellation is cooperative, checked between rows.
func (rib RunImportBatchImpl) Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	batch, found, err := rib.uow.Imports().GetBatch(spanCtx, batchID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, err
	}
	if !found {
		err := domain.NewNotFoundErr("import batch " + batchID.String() + " not found")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.ImportBatch{}, err
	}
	if batch.Status == domain.BatchStatus_Completed {
		return batch, nil
	}

	items, err := rib.uow.Imports().ListItems(spanCtx, batchID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, err
	}

	batch.Status = domain.BatchStatus_Running
	batch.TotalRows = len(items)
	batch.UpdatedAt = rib.timeProvider.Now()
	if err := rib.uow.Imports().UpdateBatchProgress(spanCtx, batch); telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, err
	}

	// A redelivered batch resumes where the last run stopped: each row's
	// candidates and counters are persisted in one transaction, so the first
	// ProcessedRows rows are already consumed.
	if resume := batch.ProcessedRows; resume > 0 {
		if resume > len(items) {
			resume = len(items)
		}
		items = items[resume:]
	}

	scope := domain.SellerScope{SellerID: batch.SellerID}
	for _, item := range items {
		if err := spanCtx.Err(); err != nil {
			telemetry.RecordErrorAndStatus(span, err)
			return batch, err
		}

		candidates, status := rib.matchRow(spanCtx, scope, item)
		batch.ProcessedRows++
		switch status {
		case domain.ReviewStatus_AutoMatched:
			batch.MatchedCount++
		case domain.ReviewStatus_NeedsReview:
			batch.AmbiguousCount++
		default:
			batch.NoMatchCount++
		}
		batch.Progress = domain.ProgressPercent(batch.ProcessedRows, batch.TotalRows)
		batch.UpdatedAt = rib.timeProvider.Now()
		RecordImportRow(spanCtx, status)

		if err := rib.uow.Execute(spanCtx, func(uow domain.UnitOfWork) error {
			if err := uow.Imports().SaveMatchCandidates(spanCtx, candidates); err != nil {
				return err
			}
			return uow.Imports().UpdateBatchProgress(spanCtx, batch)
		}); telemetry.RecordErrorAndStatus(span, err) {
			return batch, err
		}
	}

	batch.Status = domain.BatchStatus_Completed
	batch.Progress = 100
	now := rib.timeProvider.Now()
	batch.UpdatedAt = now

	if err := rib.uow.Execute(spanCtx, func(uow domain.UnitOfWork) error {
		if err := uow.Imports().UpdateBatchProgress(spanCtx, batch); err != nil {
			return err
		}
		if err := uow.Activity().Record(spanCtx, domain.ActivityRecord{
			ID:       rib.createUUID(),
			SellerID: batch.SellerID,
			Kind:     domain.ActivityKind_BatchCompleted,
			Message: fmt.Sprintf("import %q: %d rows, %d matched, %d need review, %d unmatched",
				batch.SourceName, batch.ProcessedRows, batch.MatchedCount, batch.AmbiguousCount, batch.NoMatchCount),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return uow.Outbox().CreateBatchEvent(spanCtx, domain.ImportBatchEvent{
			Type:      domain.EventType_BATCH_COMPLETED,
			BatchID:   batch.ID,
			SellerID:  batch.SellerID,
			Processed: batch.ProcessedRows,
			Matched:   batch.MatchedCount,
			Ambiguous: batch.AmbiguousCount,
			NoMatch:   batch.NoMatchCount,
			CreatedAt: now,
		})
	}); telemetry.RecordErrorAndStatus(span, err) {
		return batch, err
	}

	return batch, nil
}

// matchRow runs the per-row cascade: SKU, then barcode, then fuzzy title,
// with early exit on the first deterministic hit. Collaborator errors
// degrade the row to no-match instead of failing the batch.
func (rib RunImportBatchImpl) matchRow(ctx context.Context, scope domain.SellerScope, item domain.RawImportItem) ([]domain.MatchCandidate, domain.ReviewStatus) {
	now := rib.timeProvider.Now()
	catalog := rib.uow.Catalog()

	if item.SKU != "" {
		variant, found, err := catalog.FindBySKU(ctx, scope, item.SKU)
		if err != nil {
			return rib.failedRow(item, now, "sku lookup failed", err)
		}
		if found {
			return []domain.MatchCandidate{rib.deterministicCandidate(
				item, variant, domain.MatchType_SKU, domain.SKUMatchConfidence, "exact sku match", now,
			)}, domain.ReviewStatus_AutoMatched
		}
	}

	if item.Barcode != "" {
		variant, found, err := catalog.FindByBarcode(ctx, scope, item.Barcode)
		if err != nil {
			return rib.failedRow(item, now, "barcode lookup failed", err)
		}
		if found {
			return []domain.MatchCandidate{rib.deterministicCandidate(
				item, variant, domain.MatchType_Barcode, domain.BarcodeMatchConfidence, "exact barcode match", now,
			)}, domain.ReviewStatus_AutoMatched
		}
	}

	if item.Title != "" {
		matches, err := catalog.FindSimilarTitles(ctx, scope, item.Title, fuzzyLookupLimit)
		if err != nil {
			return rib.failedRow(item, now, "title lookup failed", err)
		}
		outcome := domain.DecideFuzzyOutcome(matches, rib.policy.FuzzyTitle)
		if outcome.Kind != domain.FuzzyOutcome_None {
			return rib.fuzzyCandidates(item, outcome, now)
		}
	}

	return []domain.MatchCandidate{rib.noMatchCandidate(item, "no plausible catalog match", now)}, domain.ReviewStatus_NoMatch
}

func (rib RunImportBatchImpl) deterministicCandidate(
	item domain.RawImportItem,
	variant domain.CatalogVariant,
	matchType domain.MatchType,
	confidence float64,
	explanation string,
	now time.Time,
) domain.MatchCandidate {
	variantID := variant.ID
	return domain.MatchCandidate{
		ID:           rib.createUUID(),
		ImportItemID: item.ID,
		VariantID:    &variantID,
		MatchType:    matchType,
		Confidence:   confidence,
		Status:       domain.ReviewStatus_AutoMatched,
		Explanation:  explanation,
		CreatedAt:    now,
	}
}

func (rib RunImportBatchImpl) fuzzyCandidates(item domain.RawImportItem, outcome domain.FuzzyOutcome, now time.Time) ([]domain.MatchCandidate, domain.ReviewStatus) {
	status := domain.ReviewStatus_NeedsReview
	if outcome.Kind == domain.FuzzyOutcome_Auto {
		status = domain.ReviewStatus_AutoMatched
	}

	candidates := make([]domain.MatchCandidate, 0, len(outcome.Matches))
	for _, match := range outcome.Matches {
		variantID := match.Variant.ID
		candidates = append(candidates, domain.MatchCandidate{
			ID:           rib.createUUID(),
			ImportItemID: item.ID,
			VariantID:    &variantID,
			MatchType:    domain.MatchType_Title,
			Confidence:   match.Similarity,
			Status:       status,
			Explanation:  fmt.Sprintf("title similarity %.2f to %q", match.Similarity, match.Variant.Title),
			CreatedAt:    now,
		})
	}
	return candidates, status
}

func (rib RunImportBatchImpl) failedRow(item domain.RawImportItem, now time.Time, what string, err error) ([]domain.MatchCandidate, domain.ReviewStatus) {
	rib.logger.Printf("row %d of batch %s: %s: %v", item.RowNumber, item.BatchID, what, err)
	return []domain.MatchCandidate{rib.noMatchCandidate(item, what, now)}, domain.ReviewStatus_NoMatch
}

func (rib RunImportBatchImpl) noMatchCandidate(item domain.RawImportItem, explanation string, now time.Time) domain.MatchCandidate {
	return domain.MatchCandidate{
		ID:           rib.createUUID(),
		ImportItemID: item.ID,
		MatchType:    domain.MatchType_None,
		Confidence:   0,
		Status:       domain.ReviewStatus_NoMatch,
		Explanation:  explanation,
		CreatedAt:    now,
	}
}

// InitRunImportBatch initializes the RunImportBatch use case and registers
// it in the dependency container.
type InitRunImportBatch struct {
	Uow          domain.UnitOfWork          `resolve:""`
	TimeProvider domain.CurrentTimeProvider `resolve:""`
	Policy       domain.ScoringPolicy       `resolve:""`
	Logger       *log.Logger                `resolve:""`
}

// Initialize registers the RunImportBatch implementation in the dependency container.
func (irb InitRunImportBatch) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[RunImportBatch](NewRunImportBatchImpl(irb.Uow, irb.TimeProvider, irb.Policy, irb.Logger))
	return ctx, nil
}
