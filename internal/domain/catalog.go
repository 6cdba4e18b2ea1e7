package domain

import (
	"context"

	"github.com/google/uuid"
)

// SellerScope restricts catalog lookups to a single seller's catalog.
// SKU uniqueness is only assumed within one scope.
type SellerScope struct {
	SellerID uuid.UUID
}

// CatalogVariant is a purchasable variant of a catalog product.
type CatalogVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Barcode   string
	Title     string
	Price     *float64
	ImageURL  string
}

// Ref returns the catalog reference for this variant.
func (v CatalogVariant) Ref() CatalogRef {
	return CatalogRef{ProductID: v.ProductID, VariantID: v.ID}
}

// TitleMatch is one fuzzy title lookup result.
type TitleMatch struct {
	Variant    CatalogVariant
	Similarity float64
}

// CatalogRepository is the catalog lookup collaborator. Deterministic
// lookups are exact; FindSimilarTitles delegates to the store's similarity
// function and returns results in descending similarity order.
type CatalogRepository interface {
	// FindBySKU returns the variant with the exact SKU within the scope.
	FindBySKU(ctx context.Context, scope SellerScope, sku string) (CatalogVariant, bool, error)
	// FindByBarcode returns the variant with the exact barcode within the scope.
	FindByBarcode(ctx context.Context, scope SellerScope, barcode string) (CatalogVariant, bool, error)
	// FindSimilarTitles returns up to limit variants ranked by title similarity.
	FindSimilarTitles(ctx context.Context, scope SellerScope, title string, limit int) ([]TitleMatch, error)
}
