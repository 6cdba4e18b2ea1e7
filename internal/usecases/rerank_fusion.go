package usecases

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
)

// RerankOutcome is the result of one rerank-and-fuse pass. Degraded is set
// when the remote reranker was unavailable and local token-overlap scoring
// was used instead.
type RerankOutcome struct {
	Candidates []domain.RankedCandidate
	Degraded   bool
}

// RerankCandidates defines the interface for the reranker score fusion
// use case: it blends remote relevance scores with the raw vector scores
// and small heuristic bonuses, then re-ranks.
type RerankCandidates interface {
	Execute(ctx context.Context, query string, candidates []domain.Candidate, topK int) (RerankOutcome, error)
}

// RerankCandidatesImpl is the implementation of the RerankCandidates use case.
type RerankCandidatesImpl struct {
	reranker domain.Reranker
	policy   domain.ScoringPolicy
	logger   *log.Logger
}

// NewRerankCandidatesImpl creates a new instance of RerankCandidatesImpl.
func NewRerankCandidatesImpl(reranker domain.Reranker, policy domain.ScoringPolicy, logger *log.Logger) RerankCandidatesImpl {
	return RerankCandidatesImpl{
		reranker: reranker,
		policy:   policy,
		logger:   logger,
	}
}

// Execute scores the candidates against the query and returns them ranked by
// adjusted score. The reranker is treated as unreliable: on failure the base
// score degrades to local token overlap and the outcome is flagged, but the
// call never fails on the reranker's account.
func (rc RerankCandidatesImpl) Execute(ctx context.Context, query string, candidates []domain.Candidate, topK int) (RerankOutcome, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	if topK <= 0 {
		err := domain.NewValidationErr("topK must be positive")
		telemetry.RecordErrorAndStatus(span, err)
		return RerankOutcome{}, err
	}
	if len(candidates) == 0 {
		return RerankOutcome{}, nil
	}

	baseScores, degraded := rc.baseScores(spanCtx, query, candidates, topK)

	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		adjusted, explanation := rc.scoreCandidate(query, candidate, baseScores[i], degraded)
		ranked = append(ranked, domain.RankedCandidate{
			Candidate:     candidate,
			AdjustedScore: adjusted,
			Explanation:   explanation,
		})
	}

	ranked = domain.RankByAdjustedScore(ranked)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	return RerankOutcome{Candidates: ranked, Degraded: degraded}, nil
}

// baseScores obtains the per-candidate base relevance score, indexed by
// candidate position. Candidates the reranker did not return score zero.
func (rc RerankCandidatesImpl) baseScores(ctx context.Context, query string, candidates []domain.Candidate, topK int) ([]float64, bool) {
	documents := make([]domain.RerankDocument, len(candidates))
	for i, c := range candidates {
		documents[i] = domain.RerankDocument{
			ID:   strconv.Itoa(i),
			Text: strings.TrimSpace(c.Title + "\n" + c.Description),
		}
	}

	scores := make([]float64, len(candidates))
	remote, err := rc.reranker.Rerank(ctx, query, documents, topK)
	if err != nil {
		rc.logger.Printf("reranker unavailable, falling back to token overlap: %v", err)
		for i := range candidates {
			scores[i] = domain.TokenOverlap(query, documents[i].Text)
		}
		return scores, true
	}

	for _, rs := range remote {
		idx, convErr := strconv.Atoi(rs.ID)
		if convErr != nil || idx < 0 || idx >= len(candidates) {
			rc.logger.Printf("reranker returned unknown document id %q, ignoring", rs.ID)
			continue
		}
		scores[idx] = rs.Score
	}
	return scores, false
}

// scoreCandidate fuses the base score with the vector hybrid and applies the
// capped heuristic bonuses, clamping the result to [0,1].
func (rc RerankCandidatesImpl) scoreCandidate(query string, c domain.Candidate, base float64, degraded bool) (float64, string) {
	weights := rc.policy.Rerank
	hybrid := vectorHybridScore(c, weights)
	fused := fuseScores(base, hybrid, weights)
	bonus, bonusParts := heuristicBonus(query, c, rc.policy.Bonuses)

	adjusted := clamp01(fused + bonus)

	var b strings.Builder
	if degraded {
		b.WriteString("reranker unavailable, token-overlap base; ")
	}
	fmt.Fprintf(&b, "base=%.2f hybrid=%.2f fused=%.2f", base, hybrid, fused)
	if len(bonusParts) > 0 {
		fmt.Fprintf(&b, " bonus=+%.2f (%s)", bonus, strings.Join(bonusParts, ", "))
	}
	return adjusted, b.String()
}

// vectorHybridScore is the better of the combined vector score and the
// weighted image/text blend, so a strong single modality is not diluted.
func vectorHybridScore(c domain.Candidate, w domain.RerankWeights) float64 {
	blend := w.HybridImage*c.ImageScore + w.HybridText*c.TextScore
	return math.Max(c.CombinedScore, blend)
}

// fuseScores blends the base relevance score with the vector hybrid and adds
// the high-vector agreement bonus, capped at 1.
func fuseScores(base, hybrid float64, w domain.RerankWeights) float64 {
	fused := w.Base*base + w.VectorHybrid*hybrid
	if hybrid >= w.HighVectorFloor {
		fused += w.HighVectorBonus
	}
	return math.Min(1, fused)
}

// heuristicBonus sums the capped additive bonuses and reports which fired.
func heuristicBonus(query string, c domain.Candidate, b domain.HeuristicBonuses) (float64, []string) {
	bonus := 0.0
	var parts []string

	if c.Title != "" {
		clean := b.CleanTitleMax * (1 - domain.PunctuationDensity(c.Title))
		if clean > 0 {
			bonus += clean
			parts = append(parts, "clean title")
		}
	}

	if c.Price != nil {
		bonus += b.PricePresent
		parts = append(parts, "price present")
	}

	if hostIsReputable(c.SourceURL, b.ReputableHosts) {
		bonus += b.ReputableHost
		parts = append(parts, "reputable host")
	}

	if overlap := domain.TokenOverlap(query, c.Title); overlap > 0 {
		bonus += b.TokenOverlapMax * overlap
		parts = append(parts, "token overlap")
	}

	return bonus, parts
}

func hostIsReputable(sourceURL string, hosts []string) bool {
	if sourceURL == "" || len(hosts) == 0 {
		return false
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// InitRerankCandidates initializes the RerankCandidates use case and
// registers it in the dependency container.
type InitRerankCandidates struct {
	Reranker domain.Reranker      `resolve:""`
	Policy   domain.ScoringPolicy `resolve:""`
	Logger   *log.Logger          `resolve:""`
}

// Initialize registers the RerankCandidates implementation in the dependency container.
func (irc InitRerankCandidates) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[RerankCandidates](NewRerankCandidatesImpl(irc.Reranker, irc.Policy, irc.Logger))
	return ctx, nil
}
