package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

var (
	importBatchFields = []string{
		"id",
		"seller_id",
		"source_name",
		"status",
		"total_rows",
		"processed_rows",
		"matched_count",
		"ambiguous_count",
		"no_match_count",
		"progress",
		"created_at",
		"updated_at",
	}

	importItemFields = []string{
		"id",
		"batch_id",
		"row_number",
		"sku",
		"barcode",
		"title",
		"price",
		"quantity",
		"purchased_at",
		"raw",
		"created_at",
	}

	matchCandidateFields = []string{
		"id",
		"import_item_id",
		"variant_id",
		"match_type",
		"confidence",
		"status",
		"explanation",
		"created_at",
	}
)

// ImportRepository implements the domain.ImportRepository interface using
// PostgreSQL as the storage backend.
type ImportRepository struct {
	sb squirrel.StatementBuilderType
}

// NewImportRepository creates a new instance of ImportRepository.
func NewImportRepository(br squirrel.BaseRunner) ImportRepository {
	return ImportRepository{
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith(br),
	}
}

// CreateBatch stores a new import batch header.
func (ir ImportRepository) CreateBatch(ctx context.Context, batch domain.ImportBatch) error {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	_, err := ir.sb.
		Insert("import_batches").
		Columns(
			importBatchFields...,
		).
		Values(
			batch.ID,
			batch.SellerID,
			batch.SourceName,
			batch.Status,
			batch.TotalRows,
			batch.ProcessedRows,
			batch.MatchedCount,
			batch.AmbiguousCount,
			batch.NoMatchCount,
			batch.Progress,
			batch.CreatedAt,
			batch.UpdatedAt,
		).
		ExecContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return err
	}
	return nil
}

// AddItems stores the parsed rows of a batch in one multi-row insert.
func (ir ImportRepository) AddItems(ctx context.Context, items []domain.RawImportItem) error {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if len(items) == 0 {
		return nil
	}

	qry := ir.sb.
		Insert("import_items").
		Columns(
			importItemFields...,
		)

	for _, item := range items {
		rawJSON, err := json.Marshal(item.Raw)
		if telemetry.RecordErrorAndStatus(span, err) {
			return fmt.Errorf("failed to marshal raw cells of row %d: %w", item.RowNumber, err)
		}
		qry = qry.Values(
			item.ID,
			item.BatchID,
			item.RowNumber,
			item.SKU,
			item.Barcode,
			item.Title,
			item.Price,
			item.Quantity,
			item.PurchasedAt,
			rawJSON,
			item.CreatedAt,
		)
	}

	_, err := qry.ExecContext(spanCtx)
	if telemetry.RecordErrorAndStatus(span, err) {
		return err
	}
	return nil
}

// GetBatch returns a batch header by id.
func (ir ImportRepository) GetBatch(ctx context.Context, id uuid.UUID) (domain.ImportBatch, bool, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	var batch domain.ImportBatch
	err := ir.sb.
		Select(
			importBatchFields...,
		).
		From("import_batches").
		Where(squirrel.Eq{"id": id}).
		QueryRowContext(spanCtx).
		Scan(
			&batch.ID,
			&batch.SellerID,
			&batch.SourceName,
			&batch.Status,
			&batch.TotalRows,
			&batch.ProcessedRows,
			&batch.MatchedCount,
			&batch.AmbiguousCount,
			&batch.NoMatchCount,
			&batch.Progress,
			&batch.CreatedAt,
			&batch.UpdatedAt,
		)

	if telemetry.RecordErrorAndStatus(span, err) {
		if err == sql.ErrNoRows {
			return domain.ImportBatch{}, false, nil
		}
		return domain.ImportBatch{}, false, err
	}

	return batch, true, nil
}

// ListItems returns a batch's rows in row order.
func (ir ImportRepository) ListItems(ctx context.Context, batchID uuid.UUID) ([]domain.RawImportItem, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	rows, err := ir.sb.
		Select(
			importItemFields...,
		).
		From("import_items").
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("row_number ASC").
		QueryContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var items []domain.RawImportItem
	for rows.Next() {
		var item domain.RawImportItem
		var rawJSON []byte
		err := rows.Scan(
			&item.ID,
			&item.BatchID,
			&item.RowNumber,
			&item.SKU,
			&item.Barcode,
			&item.Title,
			&item.Price,
			&item.Quantity,
			&item.PurchasedAt,
			&rawJSON,
			&item.CreatedAt,
		)
		if telemetry.RecordErrorAndStatus(span, err) {
			return nil, err
		}
		if len(rawJSON) > 0 {
			if err := json.Unmarshal(rawJSON, &item.Raw); telemetry.RecordErrorAndStatus(span, err) {
				return nil, fmt.Errorf("failed to unmarshal raw cells of row %d: %w", item.RowNumber, err)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	return items, nil
}

// UpdateBatchProgress persists the batch counters and status.
func (ir ImportRepository) UpdateBatchProgress(ctx context.Context, batch domain.ImportBatch) error {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	_, err := ir.sb.
		Update("import_batches").
		Set("status", batch.Status).
		Set("processed_rows", batch.ProcessedRows).
		Set("matched_count", batch.MatchedCount).
		Set("ambiguous_count", batch.AmbiguousCount).
		Set("no_match_count", batch.NoMatchCount).
		Set("progress", batch.Progress).
		Set("updated_at", batch.UpdatedAt).
		Where(squirrel.Eq{"id": batch.ID}).
		ExecContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return err
	}
	return nil
}

// SaveMatchCandidates stores the match outcomes for one row.
func (ir ImportRepository) SaveMatchCandidates(ctx context.Context, candidates []domain.MatchCandidate) error {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if len(candidates) == 0 {
		return nil
	}

	qry := ir.sb.
		Insert("match_candidates").
		Columns(
			matchCandidateFields...,
		)

	for _, c := range candidates {
		qry = qry.Values(
			c.ID,
			c.ImportItemID,
			c.VariantID,
			c.MatchType,
			c.Confidence,
			c.Status,
			c.Explanation,
			c.CreatedAt,
		)
	}

	_, err := qry.ExecContext(spanCtx)
	if telemetry.RecordErrorAndStatus(span, err) {
		return err
	}
	return nil
}

// ListMatchCandidates returns all match outcomes of a batch in row order,
// best candidate first within each row.
func (ir ImportRepository) ListMatchCandidates(ctx context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	fields := make([]string, 0, len(matchCandidateFields))
	for _, f := range matchCandidateFields {
		fields = append(fields, "c."+f)
	}

	rows, err := ir.sb.
		Select(
			fields...,
		).
		From("match_candidates c").
		Join("import_items i ON i.id = c.import_item_id").
		Where(squirrel.Eq{"i.batch_id": batchID}).
		OrderBy("i.row_number ASC", "c.confidence DESC").
		QueryContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var candidates []domain.MatchCandidate
	for rows.Next() {
		var c domain.MatchCandidate
		err := rows.Scan(
			&c.ID,
			&c.ImportItemID,
			&c.VariantID,
			&c.MatchType,
			&c.Confidence,
			&c.Status,
			&c.Explanation,
			&c.CreatedAt,
		)
		if telemetry.RecordErrorAndStatus(span, err) {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	return candidates, nil
}

// InitImportRepository is a Symbiont initializer for ImportRepository.
type InitImportRepository struct {
	DB *sql.DB `resolve:""`
}

// Initialize registers the ImportRepository in the dependency container.
func (ir InitImportRepository) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.ImportRepository](NewImportRepository(ir.DB))
	return ctx, nil
}
