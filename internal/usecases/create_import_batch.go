package usecases

import (
	"context"
	"io"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// CreateImportBatch defines the interface for ingesting one uploaded CSV:
// rows are parsed and stored, and an uploaded event is recorded so the
// worker picks the batch up for matching.
type CreateImportBatch interface {
	Execute(ctx context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []RowError, error)
}

// CreateImportBatchImpl is the implementation of the CreateImportBatch use case.
type CreateImportBatchImpl struct {
	uow          domain.UnitOfWork
	timeProvider domain.CurrentTimeProvider
	createUUID   func() uuid.UUID
}

// NewCreateImportBatchImpl creates a new instance of CreateImportBatchImpl.
func NewCreateImportBatchImpl(uow domain.UnitOfWork, timeProvider domain.CurrentTimeProvider) CreateImportBatchImpl {
	return CreateImportBatchImpl{
		uow:          uow,
		timeProvider: timeProvider,
		createUUID:   uuid.New,
	}
}

// Execute parses the upload and stores the batch in PENDING state. Rejected
// rows are returned alongside; only a fully unusable file is an error.
func (cib CreateImportBatchImpl) Execute(ctx context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []RowError, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if sellerID == uuid.Nil {
		err := domain.NewValidationErr("seller id is required")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.ImportBatch{}, nil, err
	}

	now := cib.timeProvider.Now()
	batchID := cib.createUUID()

	parsed, err := ParseImportCSV(file, batchID, now, cib.createUUID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, nil, err
	}
	if len(parsed.Items) == 0 {
		err := domain.NewValidationErr("import file contains no usable rows")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.ImportBatch{}, parsed.Rejected, err
	}

	batch := domain.ImportBatch{
		ID:         batchID,
		SellerID:   sellerID,
		SourceName: sourceName,
		Status:     domain.BatchStatus_Pending,
		TotalRows:  len(parsed.Items),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := cib.uow.Execute(spanCtx, func(uow domain.UnitOfWork) error {
		if err := uow.Imports().CreateBatch(spanCtx, batch); err != nil {
			return err
		}
		if err := uow.Imports().AddItems(spanCtx, parsed.Items); err != nil {
			return err
		}
		return uow.Outbox().CreateBatchEvent(spanCtx, domain.ImportBatchEvent{
			Type:      domain.EventType_BATCH_UPLOADED,
			BatchID:   batch.ID,
			SellerID:  batch.SellerID,
			CreatedAt: now,
		})
	}); telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, nil, err
	}

	return batch, parsed.Rejected, nil
}

// InitCreateImportBatch initializes the CreateImportBatch use case and
// registers it in the dependency container.
type InitCreateImportBatch struct {
	Uow          domain.UnitOfWork          `resolve:""`
	TimeProvider domain.CurrentTimeProvider `resolve:""`
}

// Initialize registers the CreateImportBatch implementation in the dependency container.
func (icb InitCreateImportBatch) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[CreateImportBatch](NewCreateImportBatchImpl(icb.Uow, icb.TimeProvider))
	return ctx, nil
}
