package usecases

import (
	"context"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// ListMatchCandidates defines the interface for listing the persisted match
// outcomes of one batch, e.g. for the review screen.
type ListMatchCandidates interface {
	Execute(ctx context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error)
}

// ListMatchCandidatesImpl is the implementation of the ListMatchCandidates use case.
type ListMatchCandidatesImpl struct {
	uow domain.UnitOfWork
}

// NewListMatchCandidatesImpl creates a new instance of ListMatchCandidatesImpl.
func NewListMatchCandidatesImpl(uow domain.UnitOfWork) ListMatchCandidatesImpl {
	return ListMatchCandidatesImpl{uow: uow}
}

// Execute lists the batch's match outcomes. An unknown batch id is a
// not-found error rather than an empty list.
func (lmc ListMatchCandidatesImpl) Execute(ctx context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	_, found, err := lmc.uow.Imports().GetBatch(spanCtx, batchID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	if !found {
		err := domain.NewNotFoundErr("import batch " + batchID.String() + " not found")
		telemetry.RecordErrorAndStatus(span, err)
		return nil, err
	}

	candidates, err := lmc.uow.Imports().ListMatchCandidates(spanCtx, batchID)
	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	return candidates, nil
}

// InitListMatchCandidates initializes the ListMatchCandidates use case and
// registers it in the dependency container.
type InitListMatchCandidates struct {
	Uow domain.UnitOfWork `resolve:""`
}

// Initialize registers the ListMatchCandidates implementation in the dependency container.
func (ilm InitListMatchCandidates) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[ListMatchCandidates](NewListMatchCandidatesImpl(ilm.Uow))
	return ctx, nil
}
