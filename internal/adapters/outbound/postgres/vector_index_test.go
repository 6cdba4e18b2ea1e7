package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestVectorIndex_QuerySimilar(t *testing.T) {
	variantID := uuid.MustParse("223e4567-e89b-12d3-a456-426614174000")
	productID := uuid.MustParse("323e4567-e89b-12d3-a456-426614174000")
	queryVector := []float64{0.1, 0.2, 0.3}
	vec := pgvector.NewVector(toFloat32(queryVector))

	query := "SELECT v.id, v.product_id, v.title, v.description, v.price, v.image_url, v.source_url, " +
		"GREATEST(1 - (v.embedding <=> $1), 0) AS combined_score, " +
		"COALESCE(GREATEST(1 - (v.image_embedding <=> $2), 0), 0) AS image_score, " +
		"COALESCE(GREATEST(1 - (v.text_embedding <=> $3), 0), 0) AS text_score " +
		"FROM product_variants v WHERE v.embedding IS NOT NULL AND (1 - (v.embedding <=> $4)) >= $5 " +
		"ORDER BY v.embedding <=> $6 LIMIT 10"

	candidateColumns := []string{
		"id", "product_id", "title", "description", "price", "image_url", "source_url",
		"combined_score", "image_score", "text_score",
	}

	tests := map[string]struct {
		setExpectations func(mock sqlmock.Sqlmock)
		query           domain.VectorQuery
		expectedCount   int
		expectedErr     error
		expectRawErr    bool
	}{
		"success": {
			query: domain.VectorQuery{Vector: queryVector, Limit: 10, Threshold: 0.3},
			setExpectations: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(candidateColumns).
					AddRow(variantID, productID, "Acme Widget", "A widget.", 19.99, "https://img.example.com/w.jpg", "", 0.91, 0.88, 0.79).
					AddRow(variantID, productID, "Acme Widget Mini", "", nil, "", "", 0.74, 0.0, 0.70)
				mock.ExpectQuery(query).
					WithArgs(vec, vec, vec, vec, 0.3, vec).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		"database-error": {
			query: domain.VectorQuery{Vector: queryVector, Limit: 10, Threshold: 0.3},
			setExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(vec, vec, vec, vec, 0.3, vec).
					WillReturnError(errors.New("database error"))
			},
			expectRawErr: true,
		},
		"empty-vector": {
			query:           domain.VectorQuery{Limit: 10},
			setExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:     domain.NewValidationErr("query vector must not be empty"),
		},
		"invalid-limit": {
			query:           domain.VectorQuery{Vector: queryVector},
			setExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:     domain.NewValidationErr("limit must be greater than 0"),
		},
		"dimension-mismatch": {
			query:           domain.VectorQuery{Vector: []float64{0.1, 0.2, 0.3, 0.4}, Limit: 10},
			setExpectations: func(mock sqlmock.Sqlmock) {},
			expectedErr:     domain.NewValidationErr("query vector has dimension 4, index expects 3"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			assert.NoError(t, err)
			defer db.Close() //nolint:errcheck

			tt.setExpectations(mock)

			index := NewVectorIndex(db, len(queryVector))
			got, gotErr := index.QuerySimilar(context.Background(), tt.query)

			switch {
			case tt.expectedErr != nil:
				assert.Equal(t, tt.expectedErr, gotErr)
			case tt.expectRawErr:
				assert.Error(t, gotErr)
			default:
				assert.NoError(t, gotErr)
				assert.Len(t, got, tt.expectedCount)
				assert.Equal(t, 0.91, got[0].CombinedScore)
				assert.Equal(t, 0.88, got[0].ImageScore)
				assert.Equal(t, domain.CatalogRef{ProductID: productID, VariantID: variantID}, got[0].Ref)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVectorIndex_QuerySimilar_CategoryFilter(t *testing.T) {
	variantID := uuid.MustParse("223e4567-e89b-12d3-a456-426614174000")
	productID := uuid.MustParse("323e4567-e89b-12d3-a456-426614174000")
	categoryID := uuid.MustParse("423e4567-e89b-12d3-a456-426614174000")
	queryVector := []float64{0.5, 0.5}
	vec := pgvector.NewVector(toFloat32(queryVector))

	query := "SELECT v.id, v.product_id, v.title, v.description, v.price, v.image_url, v.source_url, " +
		"GREATEST(1 - (v.embedding <=> $1), 0) AS combined_score, " +
		"COALESCE(GREATEST(1 - (v.image_embedding <=> $2), 0), 0) AS image_score, " +
		"COALESCE(GREATEST(1 - (v.text_embedding <=> $3), 0), 0) AS text_score " +
		"FROM product_variants v JOIN products p ON p.id = v.product_id " +
		"WHERE v.embedding IS NOT NULL AND p.category_id = $4 " +
		"ORDER BY v.embedding <=> $5 LIMIT 3"

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer db.Close() //nolint:errcheck

	rows := sqlmock.NewRows([]string{
		"id", "product_id", "title", "description", "price", "image_url", "source_url",
		"combined_score", "image_score", "text_score",
	}).
		AddRow(variantID, productID, "Acme Widget", "", nil, "", "", 0.55, 0.0, 0.55)
	mock.ExpectQuery(query).
		WithArgs(vec, vec, vec, categoryID, vec).
		WillReturnRows(rows)

	index := NewVectorIndex(db, len(queryVector))
	got, err := index.QuerySimilar(context.Background(), domain.VectorQuery{
		Vector:     queryVector,
		CategoryID: &categoryID,
		Limit:      3,
	})

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToFloat32(t *testing.T) {
	long := make([]float64, 2000)
	assert.Len(t, toFloat32(long), 2000)

	short := toFloat32([]float64{0.25, 0.5})
	assert.Equal(t, []float32{0.25, 0.5}, short)
}
