package postgres

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/cleitonmarx/symbiont/depend"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	catalogVariantFields = []string{
		"v.id",
		"v.product_id",
		"v.sku",
		"v.barcode",
		"v.title",
		"v.price",
		"v.image_url",
	}
)

// CatalogRepository implements the domain.CatalogRepository interface using
// PostgreSQL as the storage backend. Fuzzy title lookups rely on the pg_trgm
// extension installed by the migrations.
type CatalogRepository struct {
	sb squirrel.StatementBuilderType
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(br squirrel.BaseRunner) CatalogRepository {
	return CatalogRepository{
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith(br),
	}
}

// FindBySKU returns the variant with the exact SKU within the seller scope.
func (cr CatalogRepository) FindBySKU(ctx context.Context, scope domain.SellerScope, sku string) (domain.CatalogVariant, bool, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	return cr.findVariant(spanCtx, span, scope, squirrel.Eq{"v.sku": sku})
}

// FindByBarcode returns the variant with the exact barcode within the seller scope.
func (cr CatalogRepository) FindByBarcode(ctx context.Context, scope domain.SellerScope, barcode string) (domain.CatalogVariant, bool, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	return cr.findVariant(spanCtx, span, scope, squirrel.Eq{"v.barcode": barcode})
}

func (cr CatalogRepository) findVariant(ctx context.Context, span trace.Span, scope domain.SellerScope, pred squirrel.Eq) (domain.CatalogVariant, bool, error) {
	var variant domain.CatalogVariant
	err := cr.sb.
		Select(
			catalogVariantFields...,
		).
		From("product_variants v").
		Join("products p ON p.id = v.product_id").
		Where(squirrel.Eq{"p.seller_id": scope.SellerID}).
		Where(pred).
		QueryRowContext(ctx).
		Scan(
			&variant.ID,
			&variant.ProductID,
			&variant.SKU,
			&variant.Barcode,
			&variant.Title,
			&variant.Price,
			&variant.ImageURL,
		)

	if telemetry.RecordErrorAndStatus(span, err) {
		if err == sql.ErrNoRows {
			return domain.CatalogVariant{}, false, nil
		}
		return domain.CatalogVariant{}, false, err
	}

	return variant, true, nil
}

// FindSimilarTitles returns up to limit variants ranked by trigram title
// similarity, descending.
func (cr CatalogRepository) FindSimilarTitles(ctx context.Context, scope domain.SellerScope, title string, limit int) ([]domain.TitleMatch, error) {
	spanCtx, span := telemetry.Start(ctx, trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		return nil, domain.NewValidationErr("limit must be greater than 0")
	}

	rows, err := cr.sb.
		Select(
			catalogVariantFields...,
		).
		Column(squirrel.Expr("similarity(v.title, ?) AS title_similarity", title)).
		From("product_variants v").
		Join("products p ON p.id = v.product_id").
		Where(squirrel.Eq{"p.seller_id": scope.SellerID}).
		Where(squirrel.Expr("v.title % ?", title)).
		OrderByClause(squirrel.Expr("similarity(v.title, ?) DESC", title)).
		Limit(uint64(limit)).
		QueryContext(spanCtx)

	if telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var matches []domain.TitleMatch
	for rows.Next() {
		var m domain.TitleMatch
		err := rows.Scan(
			&m.Variant.ID,
			&m.Variant.ProductID,
			&m.Variant.SKU,
			&m.Variant.Barcode,
			&m.Variant.Title,
			&m.Variant.Price,
			&m.Variant.ImageURL,
			&m.Similarity,
		)
		if telemetry.RecordErrorAndStatus(span, err) {
			return nil, err
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); telemetry.RecordErrorAndStatus(span, err) {
		return nil, err
	}

	return matches, nil
}

// InitCatalogRepository is a Symbiont initializer for CatalogRepository.
type InitCatalogRepository struct {
	DB *sql.DB `resolve:""`
}

// Initialize registers the CatalogRepository in the dependency container.
func (cr InitCatalogRepository) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.CatalogRepository](NewCatalogRepository(cr.DB))
	return ctx, nil
}
