package modelrunner

import (
	"context"
	"net/http"
	"time"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RemoteReranker adapts DRMAPIClient to the domain.Reranker interface.
type RemoteReranker struct {
	client  DRMAPIClient
	model   string
	timeout time.Duration
}

// NewRemoteReranker creates a new RemoteReranker.
func NewRemoteReranker(client DRMAPIClient, model string, timeout time.Duration) RemoteReranker {
	return RemoteReranker{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Rerank scores the document snapshots against the query. Results keep the
// document IDs the caller passed in.
func (r RemoteReranker) Rerank(ctx context.Context, query string, documents []domain.RerankDocument, topK int) ([]domain.RerankScore, error) {
	spanCtx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("documents", len(documents)),
		attribute.Int("topK", topK),
	))
	defer span.End()

	if len(documents) == 0 {
		return nil, nil
	}

	texts := make([]string, len(documents))
	for i, doc := range documents {
		texts[i] = doc.Text
	}

	reqCtx, cancel := context.WithTimeout(spanCtx, r.timeout)
	defer cancel()

	resp, err := r.client.Rerank(reqCtx, RerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: texts,
		TopN:      topK,
	})
	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	var scores []domain.RerankScore
	for _, result := range resp.Results {
		if result.Index < 0 || result.Index >= len(documents) {
			continue
		}
		scores = append(scores, domain.RerankScore{
			ID:    documents[result.Index].ID,
			Score: result.RelevanceScore,
		})
	}

	return scores, nil
}

// InitReranker initializes the Reranker dependency.
type InitReranker struct {
	HttpClient  *http.Client  `resolve:""`
	RerankHost  string        `config:"RERANK_MODEL_HOST"`
	RerankModel string        `config:"RERANK_MODEL"`
	Timeout     time.Duration `config:"RERANK_TIMEOUT" default:"10s"`
}

// Initialize registers the Reranker in the dependency container.
func (i InitReranker) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.Reranker](NewRemoteReranker(
		NewDRMAPIClient(i.RerankHost, "", i.HttpClient),
		i.RerankModel,
		i.Timeout,
	))
	return ctx, nil
}
