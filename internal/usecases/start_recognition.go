package usecases

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// StartRecognition defines the interface for the first stage of a
// recognition session: every source is vectorized, searched against the
// catalog index and routed by confidence, concurrently but reassembled in
// input order.
type StartRecognition interface {
	Execute(ctx context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error)
}

// StartRecognitionImpl is the implementation of the StartRecognition use case.
type StartRecognitionImpl struct {
	encoder      domain.SemanticEncoder
	index        domain.VectorIndex
	searcher     domain.ExternalSearcher
	store        domain.SessionStore
	timeProvider domain.CurrentTimeProvider
	policy       domain.ScoringPolicy
	logger       *log.Logger
	searchLimit  int
	maxSources   int
	createUUID   func() uuid.UUID
}

// NewStartRecognitionImpl creates a new instance of StartRecognitionImpl.
func NewStartRecognitionImpl(
	encoder domain.SemanticEncoder,
	index domain.VectorIndex,
	searcher domain.ExternalSearcher,
	store domain.SessionStore,
	timeProvider domain.CurrentTimeProvider,
	policy domain.ScoringPolicy,
	logger *log.Logger,
	searchLimit int,
	maxSources int,
) StartRecognitionImpl {
	return StartRecognitionImpl{
		encoder:      encoder,
		index:        index,
		searcher:     searcher,
		store:        store,
		timeProvider: timeProvider,
		policy:       policy,
		logger:       logger,
		searchLimit:  searchLimit,
		maxSources:   maxSources,
		createUUID:   uuid.New,
	}
}

// Execute creates the session and runs the recognize stage over all sources.
// One source failing degrades that source only; the session always advances
// to the match stage.
func (sr StartRecognitionImpl) Execute(ctx context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if err := sr.validateSources(sellerID, sources); telemetry.RecordErrorAndStatus(span, err) {
		return domain.RecognitionSession{}, err
	}

	results := make([]domain.SourceResult, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(index int, source domain.SourceInput) {
			defer wg.Done()
			results[index] = sr.processSource(spanCtx, index, source)
		}(i, source)
	}
	wg.Wait()

	for _, result := range results {
		RecordMatchOutcome(spanCtx, result.Tier, result.Outcome != domain.SourceOutcome_OK)
	}

	now := sr.timeProvider.Now()
	session := domain.RecognitionSession{
		ID:         sr.createUUID(),
		SellerID:   sellerID,
		Stage:      domain.SessionStage_Match,
		Sources:    sources,
		Recognized: results,
		Selected:   map[int]domain.RankedCandidate{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := sr.store.Create(spanCtx, session); telemetry.RecordErrorAndStatus(span, err) {
		return domain.RecognitionSession{}, err
	}
	return session, nil
}

func (sr StartRecognitionImpl) validateSources(sellerID uuid.UUID, sources []domain.SourceInput) error {
	if sellerID == uuid.Nil {
		return domain.NewValidationErr("seller id is required")
	}
	if len(sources) == 0 {
		return domain.NewValidationErr("at least one source is required")
	}
	if len(sources) > sr.maxSources {
		return domain.NewValidationErr(fmt.Sprintf("at most %d sources per session", sr.maxSources))
	}
	for i, source := range sources {
		if err := source.Validate(); err != nil {
			return domain.NewValidationErr(fmt.Sprintf("source %d: %v", i, err))
		}
	}
	return nil
}

// processSource vectorizes one source, queries the index and routes the
// outcome. Every failure is absorbed into the source's own result.
func (sr StartRecognitionImpl) processSource(ctx context.Context, index int, source domain.SourceInput) domain.SourceResult {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	result := domain.SourceResult{Index: index}

	vectors, query, err := sr.vectorize(spanCtx, source)
	result.Query = query
	if err != nil {
		telemetry.RecordErrorAndStatus(span, err)
		return failedSource(result, fmt.Sprintf("vectorization failed: %v", err))
	}

	fused, err := domain.FuseModalities(vectors, sr.policy.Fusion)
	if err != nil {
		telemetry.RecordErrorAndStatus(span, err)
		return failedSource(result, fmt.Sprintf("fusion failed: %v", err))
	}
	if fused.ZeroNormInputs > 0 {
		sr.logger.Printf("source %d: %d zero-norm embedding(s) ignored during fusion", index, fused.ZeroNormInputs)
	}

	candidates, err := sr.index.QuerySimilar(spanCtx, domain.VectorQuery{
		Vector:    fused.Vector,
		Limit:     sr.searchLimit,
		Threshold: sr.policy.Confidence.NoMatchFloor,
	})
	if err != nil {
		telemetry.RecordErrorAndStatus(span, err)
		sr.logger.Printf("source %d: vector search failed: %v", index, err)
		return sr.externalFallback(spanCtx, result, "vector search unavailable")
	}

	if len(candidates) == 0 {
		result.Tier = domain.ConfidenceTier_Low
		result.Action = domain.RouteAction(result.Tier, 0)
		return sr.externalFallback(spanCtx, result, "no catalog hits above threshold")
	}

	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, domain.RankedCandidate{
			Candidate:     c,
			AdjustedScore: c.CombinedScore,
			Explanation:   fmt.Sprintf("vector similarity %.2f", c.CombinedScore),
		})
	}
	ranked = domain.RankByAdjustedScore(ranked)

	result.Candidates = ranked
	result.Tier = domain.RouteConfidence(ranked[0].AdjustedScore, sr.policy.Confidence)
	result.Action = domain.RouteAction(result.Tier, len(ranked))
	result.Outcome = domain.SourceOutcome_OK
	result.Explanation = fmt.Sprintf("%d catalog candidates, top score %.2f", len(ranked), ranked[0].AdjustedScore)

	if result.Action == domain.SystemAction_FallbackToExternal {
		return sr.externalFallback(spanCtx, result, "low confidence in catalog hits")
	}
	return result
}

// vectorize turns one source into modality vectors plus the free-text query
// later stages score against. Individual image failures are tolerated as
// long as at least one vector survives.
func (sr StartRecognitionImpl) vectorize(ctx context.Context, source domain.SourceInput) ([]domain.ModalityVector, string, error) {
	switch source.Kind {
	case domain.SourceKind_Image:
		var vectors []domain.ModalityVector
		var lastErr error
		for _, url := range source.ImageURLs {
			embedding, err := sr.encoder.EmbedImage(ctx, domain.ImageEmbeddingInput{URL: url})
			if err != nil {
				sr.logger.Printf("image embedding failed for %s: %v", url, err)
				lastErr = err
				continue
			}
			RecordLLMTokensEmbedding(ctx, embedding.TotalTokens)
			vectors = append(vectors, domain.ModalityVector{Modality: domain.Modality_Image, Vector: embedding.Vector})
		}
		if len(vectors) == 0 {
			return nil, "", fmt.Errorf("all image embeddings failed: %w", lastErr)
		}
		return vectors, "", nil

	case domain.SourceKind_Text:
		embedding, err := sr.encoder.EmbedText(ctx, domain.TextEmbeddingInput{Title: source.Text})
		if err != nil {
			return nil, source.Text, err
		}
		RecordLLMTokensEmbedding(ctx, embedding.TotalTokens)
		return []domain.ModalityVector{{Modality: domain.Modality_Text, Vector: embedding.Vector}}, source.Text, nil

	case domain.SourceKind_Link:
		records, err := sr.searcher.Extract(ctx, []string{source.LinkURL}, []string{"title", "description", "price", "image_url"})
		if err != nil {
			return nil, "", fmt.Errorf("link extraction failed: %w", err)
		}
		if len(records) == 0 || records[0].Title == "" {
			return nil, "", fmt.Errorf("no product data extractable from %s", source.LinkURL)
		}
		record := records[0]

		embedding, err := sr.encoder.EmbedText(ctx, domain.TextEmbeddingInput{
			Title:       record.Title,
			Description: record.Description,
		})
		if err != nil {
			return nil, record.Title, err
		}
		RecordLLMTokensEmbedding(ctx, embedding.TotalTokens)
		vectors := []domain.ModalityVector{{Modality: domain.Modality_Text, Vector: embedding.Vector}}

		if record.ImageURL != "" {
			imageEmbedding, err := sr.encoder.EmbedImage(ctx, domain.ImageEmbeddingInput{URL: record.ImageURL})
			if err != nil {
				sr.logger.Printf("image embedding failed for extracted %s: %v", record.ImageURL, err)
			} else {
				RecordLLMTokensEmbedding(ctx, imageEmbedding.TotalTokens)
				vectors = append(vectors, domain.ModalityVector{Modality: domain.Modality_Image, Vector: imageEmbedding.Vector})
			}
		}
		return vectors, record.Title, nil

	default:
		return nil, "", domain.NewValidationErr("unknown source kind")
	}
}

// externalFallback attaches external search hits to a low-confidence result.
// Image-only sources have no query text, so they route to manual triage.
func (sr StartRecognitionImpl) externalFallback(ctx context.Context, result domain.SourceResult, reason string) domain.SourceResult {
	result.Tier = domain.ConfidenceTier_Low
	if result.Query == "" {
		result.Outcome = domain.SourceOutcome_OK
		result.Action = domain.SystemAction_FallbackToManual
		result.Explanation = reason + "; no query text for external search"
		return result
	}

	hits, err := sr.searcher.Search(ctx, result.Query)
	result.Outcome = domain.SourceOutcome_Degraded
	if err != nil {
		sr.logger.Printf("external search failed for %q: %v", result.Query, err)
		result.Action = domain.SystemAction_FallbackToManual
		result.Explanation = reason + "; external search unavailable"
		return result
	}

	result.External = hits
	result.Action = domain.SystemAction_FallbackToExternal
	result.Explanation = fmt.Sprintf("%s; %d external results", reason, len(hits))
	return result
}

func failedSource(result domain.SourceResult, explanation string) domain.SourceResult {
	result.Outcome = domain.SourceOutcome_Failed
	result.Tier = domain.ConfidenceTier_Low
	result.Action = domain.SystemAction_FallbackToManual
	result.Explanation = explanation
	return result
}

// InitStartRecognition initializes the StartRecognition use case and
// registers it in the dependency container.
type InitStartRecognition struct {
	Encoder      domain.SemanticEncoder     `resolve:""`
	Index        domain.VectorIndex         `resolve:""`
	Searcher     domain.ExternalSearcher    `resolve:""`
	Store        domain.SessionStore        `resolve:""`
	TimeProvider domain.CurrentTimeProvider `resolve:""`
	Policy       domain.ScoringPolicy       `resolve:""`
	Logger       *log.Logger                `resolve:""`
	SearchLimit  int                        `config:"VECTOR_SEARCH_LIMIT" default:"10"`
	MaxSources   int                        `config:"RECOGNITION_MAX_SOURCES" default:"8"`
}

// Initialize registers the StartRecognition implementation in the dependency container.
func (isr InitStartRecognition) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[StartRecognition](NewStartRecognitionImpl(
		isr.Encoder, isr.Index, isr.Searcher, isr.Store, isr.TimeProvider,
		isr.Policy, isr.Logger, isr.SearchLimit, isr.MaxSources,
	))
	return ctx, nil
}
