package postgres

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

var (
	activityFields = []string{
		"id",
		"seller_id",
		"kind",
		"message",
		"created_at",
	}
)

// ActivityRepository implements the domain.ActivityRepository interface using
// PostgreSQL as the storage backend.
type ActivityRepository struct {
	sb squirrel.StatementBuilderType
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(br squirrel.BaseRunner) ActivityRepository {
	return ActivityRepository{
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith(br),
	}
}

// Record stores one activity record.
func (ar ActivityRepository) Record(ctx context.Context, record domain.ActivityRecord) error {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	_, err := ar.sb.
		Insert("activity_records").
		Columns(
			activityFields...,
		).
		Values(
			record.ID,
			record.SellerID,
			record.Kind,
			record.Message,
			record.CreatedAt,
		).
		ExecContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return err
	}
	return nil
}

// ListRecent returns up to limit records for a seller, newest first.
func (ar ActivityRepository) ListRecent(ctx context.Context, sellerID uuid.UUID, limit int) ([]domain.ActivityRecord, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if limit <= 0 {
		return nil, domain.NewValidationErr("limit must be greater than 0")
	}

	rows, err := ar.sb.
		Select(
			activityFields...,
		).
		From("activity_records").
		Where(squirrel.Eq{"seller_id": sellerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		QueryContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.ActivityRecord
	for rows.Next() {
		var r domain.ActivityRecord
		err := rows.Scan(
			&r.ID,
			&r.SellerID,
			&r.Kind,
			&r.Message,
			&r.CreatedAt,
		)
		if telemetry.RecordErrorAndStatus(span, err) {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	return records, nil
}

// InitActivityRepository is a Symbiont initializer for ActivityRepository.
type InitActivityRepository struct {
	DB *sql.DB `resolve:""`
}

// Initialize registers the ActivityRepository in the dependency container.
func (ar InitActivityRepository) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.ActivityRepository](NewActivityRepository(ar.DB))
	return ctx, nil
}
