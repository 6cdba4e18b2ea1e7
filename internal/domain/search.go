package domain

import (
	"context"

	"github.com/google/uuid"
)

// VectorQuery is one nearest-neighbour query against the vector index.
type VectorQuery struct {
	Vector     []float64
	CategoryID *uuid.UUID
	Limit      int
	Threshold  float64
}

// VectorIndex is the vector search collaborator. Scores are cosine
// similarities in [0,1], higher is more similar; results are ordered by
// descending similarity and filtered to similarity >= Threshold.
type VectorIndex interface {
	QuerySimilar(ctx context.Context, query VectorQuery) ([]Candidate, error)
}

// RerankDocument is one candidate snapshot handed to the remote reranker.
type RerankDocument struct {
	ID   string
	Text string
}

// RerankScore is the remote reranker's relevance score for one document.
type RerankScore struct {
	ID    string
	Score float64
}

// Reranker is the remote reranking collaborator. It scores candidate text
// snapshots against a free-text query. Callers must treat it as unreliable:
// failures degrade to local scoring, never abort the pipeline.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []RerankDocument, topK int) ([]RerankScore, error)
}

// ExternalResult is one hit from the external search fallback.
type ExternalResult struct {
	Title   string
	URL     string
	Snippet string
	Price   *float64
}

// ExternalRecord is one structured record extracted from an external page.
type ExternalRecord struct {
	URL         string
	Title       string
	Description string
	Price       *float64
	ImageURL    string
}

// ExternalSearcher is the external search fallback collaborator, invoked
// only when internal confidence is low.
type ExternalSearcher interface {
	// Search runs a web search for the query.
	Search(ctx context.Context, query string) ([]ExternalResult, error)
	// Extract pulls structured records for the named fields out of the URLs.
	Extract(ctx context.Context, urls []string, fields []string) ([]ExternalRecord, error)
}
