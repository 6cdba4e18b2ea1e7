package usecases

import (
	"context"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// GetImportBatch defines the interface for fetching one batch header with
// its progress counters.
type GetImportBatch interface {
	Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error)
}

// GetImportBatchImpl is the implementation of the GetImportBatch use case.
type GetImportBatchImpl struct {
	uow domain.UnitOfWork
}

// NewGetImportBatchImpl creates a new instance of GetImportBatchImpl.
func NewGetImportBatchImpl(uow domain.UnitOfWork) GetImportBatchImpl {
	return GetImportBatchImpl{uow: uow}
}

// Execute fetches the batch by id.
func (gib GetImportBatchImpl) Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	batch, found, err := gib.uow.Imports().GetBatch(spanCtx, batchID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.ImportBatch{}, err
	}
	if !found {
		err := domain.NewNotFoundErr("import batch " + batchID.String() + " not found")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.ImportBatch{}, err
	}
	return batch, nil
}

// InitGetImportBatch initializes the GetImportBatch use case and registers
// it in the dependency container.
type InitGetImportBatch struct {
	Uow domain.UnitOfWork `resolve:""`
}

// Initialize registers the GetImportBatch implementation in the dependency container.
func (igb InitGetImportBatch) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[GetImportBatch](NewGetImportBatchImpl(igb.Uow))
	return ctx, nil
}
