package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cleitonmarx/symbiont/depend"
	"github.com/pgvector/pgvector-go"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// VectorIndex implements the domain.VectorIndex interface over the pgvector
// columns of product_variants. Cosine distance is mapped to similarity in
// [0,1]; variants without a fused embedding are never returned.
type VectorIndex struct {
	sb  squirrel.StatementBuilderType
	dim int
}

// NewVectorIndex creates a new instance of VectorIndex. dim is the dimension
// of the pgvector columns; query vectors of any other length are rejected.
func NewVectorIndex(br squirrel.BaseRunner, dim int) VectorIndex {
	return VectorIndex{
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith(br),
		dim: dim,
	}
}

// QuerySimilar returns candidates ordered by descending cosine similarity to
// the query vector, filtered to similarity >= Threshold.
func (vi VectorIndex) QuerySimilar(ctx context.Context, query domain.VectorQuery) ([]domain.Candidate, error) {
	spanCtx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("limit", query.Limit),
		attribute.Float64("threshold", query.Threshold),
	))
	defer span.End()

	if len(query.Vector) == 0 {
		return nil, domain.NewValidationErr("query vector must not be empty")
	}
	if query.Limit <= 0 {
		return nil, domain.NewValidationErr("limit must be greater than 0")
	}
	if len(query.Vector) != vi.dim {
		return nil, domain.NewValidationErr(
			fmt.Sprintf("query vector has dimension %d, index expects %d", len(query.Vector), vi.dim),
		)
	}

	vec := pgvector.NewVector(toFloat32(query.Vector))

	qry := vi.sb.
		Select(
			"v.id",
			"v.product_id",
			"v.title",
			"v.description",
			"v.price",
			"v.image_url",
			"v.source_url",
		).
		Column(squirrel.Expr("GREATEST(1 - (v.embedding <=> ?), 0) AS combined_score", vec)).
		Column(squirrel.Expr("COALESCE(GREATEST(1 - (v.image_embedding <=> ?), 0), 0) AS image_score", vec)).
		Column(squirrel.Expr("COALESCE(GREATEST(1 - (v.text_embedding <=> ?), 0), 0) AS text_score", vec)).
		From("product_variants v").
		Where(squirrel.Expr("v.embedding IS NOT NULL"))

	if query.CategoryID != nil {
		qry = qry.
			Join("products p ON p.id = v.product_id").
			Where(squirrel.Eq{"p.category_id": *query.CategoryID})
	}

	if query.Threshold > 0 {
		qry = qry.Where(squirrel.Expr("(1 - (v.embedding <=> ?)) >= ?", vec, query.Threshold))
	}

	rows, err := qry.
		OrderByClause(squirrel.Expr("v.embedding <=> ?", vec)).
		Limit(uint64(query.Limit)).
		QueryContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		err := rows.Scan(
			&c.Ref.VariantID,
			&c.Ref.ProductID,
			&c.Title,
			&c.Description,
			&c.Price,
			&c.ImageURL,
			&c.SourceURL,
			&c.CombinedScore,
			&c.ImageScore,
			&c.TextScore,
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

// InitVectorIndex is a Symbiont initializer for VectorIndex.
type InitVectorIndex struct {
	DB        *sql.DB `resolve:""`
	Dimension int     `config:"EMBEDDING_DIMENSION" default:"1536"`
}

// Initialize registers the VectorIndex in the dependency container.
func (vi InitVectorIndex) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.VectorIndex](NewVectorIndex(vi.DB, vi.Dimension))
	return ctx, nil
}

func toFloat32(input []float64) []float32 {
	f32 := make([]float32, len(input))
	for i, v := range input {
		f32[i] = float32(v)
	}
	return f32
}
