package usecases

import (
	"context"
	"fmt"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// MatchSession defines the interface for the second stage of a recognition
// session: candidates are reranked per source, user overrides are honored,
// and confident matches are selected for the generate stage.
type MatchSession interface {
	Execute(ctx context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error)
}

// MatchSessionImpl is the implementation of the MatchSession use case.
type MatchSessionImpl struct {
	store        domain.SessionStore
	reranker     RerankCandidates
	timeProvider domain.CurrentTimeProvider
	policy       domain.ScoringPolicy
	rerankTopK   int
}

// NewMatchSessionImpl creates a new instance of MatchSessionImpl.
func NewMatchSessionImpl(
	store domain.SessionStore,
	reranker RerankCandidates,
	timeProvider domain.CurrentTimeProvider,
	policy domain.ScoringPolicy,
	rerankTopK int,
) MatchSessionImpl {
	return MatchSessionImpl{
		store:        store,
		reranker:     reranker,
		timeProvider: timeProvider,
		policy:       policy,
		rerankTopK:   rerankTopK,
	}
}

// Execute advances the session through the match stage. A user selection
// for a source bypasses scoring entirely; every other source with
// candidates goes through reranker score fusion. Sources are processed in
// input order with cooperative cancellation in between.
func (ms MatchSessionImpl) Execute(ctx context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	byIndex := map[int]domain.SourceSelection{}
	for _, sel := range selections {
		byIndex[sel.SourceIndex] = sel
	}

	session, err := ms.store.Update(spanCtx, sessionID, func(session *domain.RecognitionSession) error {
		if err := session.EnsureStage(domain.SessionStage_Match); err != nil {
			return err
		}
		for _, sel := range selections {
			if sel.SourceIndex < 0 || sel.SourceIndex >= len(session.Recognized) {
				return domain.NewValidationErr(fmt.Sprintf("selection references unknown source %d", sel.SourceIndex))
			}
		}

		session.Matched = make([]domain.SourceResult, len(session.Recognized))
		for i, recognized := range session.Recognized {
			if err := spanCtx.Err(); err != nil {
				return err
			}

			matched, err := ms.matchSource(spanCtx, session, recognized, byIndex)
			if err != nil {
				return err
			}
			session.Matched[i] = matched
			RecordMatchOutcome(spanCtx, matched.Tier, matched.Outcome != domain.SourceOutcome_OK)
		}

		session.Stage = domain.SessionStage_Generate
		session.UpdatedAt = ms.timeProvider.Now()
		return nil
	})
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.RecognitionSession{}, err
	}
	return session, nil
}

// matchSource produces the match-stage result for one source and, when the
// outcome is confident or user-chosen, records the selection.
func (ms MatchSessionImpl) matchSource(
	ctx context.Context,
	session *domain.RecognitionSession,
	recognized domain.SourceResult,
	selections map[int]domain.SourceSelection,
) (domain.SourceResult, error) {
	if sel, ok := selections[recognized.Index]; ok {
		return ms.applySelection(session, recognized, sel)
	}

	if recognized.Outcome == domain.SourceOutcome_Failed || len(recognized.Candidates) == 0 {
		return recognized, nil
	}

	candidates := make([]domain.Candidate, len(recognized.Candidates))
	for i, rc := range recognized.Candidates {
		candidates[i] = rc.Candidate
	}

	outcome, err := ms.reranker.Execute(ctx, recognized.Query, candidates, ms.rerankTopK)
	if err != nil {
		return domain.SourceResult{}, err
	}

	result := recognized
	result.Candidates = outcome.Candidates
	if outcome.Degraded {
		// Locally rescored only; never let that claim high confidence.
		result.Outcome = domain.SourceOutcome_Degraded
		result.Tier = domain.ConfidenceTier_Low
		result.Explanation = "reranker unavailable, kept vector ordering with local scoring"
	} else {
		result.Outcome = domain.SourceOutcome_OK
		result.Tier = domain.RouteConfidence(outcome.Candidates[0].AdjustedScore, ms.policy.Confidence)
		result.Explanation = fmt.Sprintf("reranked %d candidates, top adjusted score %.2f",
			len(outcome.Candidates), outcome.Candidates[0].AdjustedScore)
	}
	result.Action = domain.RouteAction(result.Tier, len(outcome.Candidates))

	if result.Tier == domain.ConfidenceTier_High {
		session.Selected[recognized.Index] = outcome.Candidates[0]
	}
	return result, nil
}

// applySelection honors an explicit user override, bypassing scoring.
func (ms MatchSessionImpl) applySelection(
	session *domain.RecognitionSession,
	recognized domain.SourceResult,
	sel domain.SourceSelection,
) (domain.SourceResult, error) {
	result := recognized
	result.Outcome = domain.SourceOutcome_OK

	if sel.RejectAll {
		result.Candidates = nil
		result.Tier = domain.ConfidenceTier_Low
		result.Action = domain.SystemAction_FallbackToManual
		result.Explanation = "all candidates rejected by user"
		return result, nil
	}

	if sel.AcceptRank == nil {
		return domain.SourceResult{}, domain.NewValidationErr(
			fmt.Sprintf("selection for source %d must accept a rank or reject all", sel.SourceIndex))
	}

	for _, candidate := range recognized.Candidates {
		if candidate.Rank == *sel.AcceptRank {
			session.Selected[recognized.Index] = candidate
			result.Candidates = []domain.RankedCandidate{candidate}
			result.Tier = domain.ConfidenceTier_High
			result.Action = domain.SystemAction_ShowSingleMatch
			result.Explanation = fmt.Sprintf("user accepted rank %d", *sel.AcceptRank)
			return result, nil
		}
	}
	return domain.SourceResult{}, domain.NewValidationErr(
		fmt.Sprintf("source %d has no candidate at rank %d", sel.SourceIndex, *sel.AcceptRank))
}

// InitMatchSession initializes the MatchSession use case and registers it
// in the dependency container.
type InitMatchSession struct {
	Store        domain.SessionStore        `resolve:""`
	Reranker     RerankCandidates           `resolve:""`
	TimeProvider domain.CurrentTimeProvider `resolve:""`
	Policy       domain.ScoringPolicy       `resolve:""`
	RerankTopK   int                        `config:"RERANK_TOP_K" default:"5"`
}

// Initialize registers the MatchSession implementation in the dependency container.
func (ims InitMatchSession) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[MatchSession](NewMatchSessionImpl(ims.Store, ims.Reranker, ims.TimeProvider, ims.Policy, ims.RerankTopK))
	return ctx, nil
}
