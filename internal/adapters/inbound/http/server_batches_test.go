package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/usecases"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSellerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testBatchID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	batchTime    = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	domainBatch = domain.ImportBatch{
		ID:         testBatchID,
		SellerID:   testSellerID,
		SourceName: "inventory.csv",
		Status:     domain.BatchStatus_Pending,
		TotalRows:  3,
		CreatedAt:  batchTime,
		UpdatedAt:  batchTime,
	}
)

func newTestServer() MatchEngineServer {
	return MatchEngineServer{Logger: log.New(io.Discard, "", 0)}
}

func TestMatchEngineServer_UploadBatch(t *testing.T) {
	tests := map[string]struct {
		sellerID       string
		executeFn      func(ctx context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []usecases.RowError, error)
		expectedStatus int
		expectedCode   ErrorCode
	}{
		"success": {
			sellerID: testSellerID.String(),
			executeFn: func(_ context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []usecases.RowError, error) {
				assert.Equal(t, testSellerID, sellerID)
				assert.Equal(t, "inventory.csv", sourceName)
				content, err := io.ReadAll(file)
				require.NoError(t, err)
				assert.Contains(t, string(content), "sku,title")
				return domainBatch, []usecases.RowError{{RowNumber: 3, Message: "title is required"}}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		"invalid-seller-id": {
			sellerID:       "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
		"unusable-file": {
			sellerID: testSellerID.String(),
			executeFn: func(context.Context, uuid.UUID, string, io.Reader) (domain.ImportBatch, []usecases.RowError, error) {
				return domain.ImportBatch{}, nil, domain.NewValidationErr("import file contains no usable rows")
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
		"internal-error": {
			sellerID: testSellerID.String(),
			executeFn: func(context.Context, uuid.UUID, string, io.Reader) (domain.ImportBatch, []usecases.RowError, error) {
				return domain.ImportBatch{}, nil, errors.New("database error")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrorCode_InternalError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestServer()
			api.CreateImportBatchUseCase = &fakeCreateImportBatch{executeFn: tt.executeFn}

			body, contentType := buildCSVUpload(t, tt.sellerID, "inventory.csv", "sku,title\nA-1,Acme Widget\n")
			req := httptest.NewRequest(http.MethodPost, "/api/batches", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			api.UploadBatch(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var errResp ErrorResp
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Error.Code)
				return
			}

			var resp UploadBatchResp
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, toBatch(domainBatch), resp.Batch)
			assert.Equal(t, []RowError{{RowNumber: 3, Message: "title is required"}}, resp.Rejected)
		})
	}
}

func TestMatchEngineServer_GetBatch(t *testing.T) {
	tests := map[string]struct {
		batchID        string
		executeFn      func(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error)
		expectedStatus int
		expectedCode   ErrorCode
	}{
		"success": {
			batchID: testBatchID.String(),
			executeFn: func(_ context.Context, batchID uuid.UUID) (domain.ImportBatch, error) {
				assert.Equal(t, testBatchID, batchID)
				return domainBatch, nil
			},
			expectedStatus: http.StatusOK,
		},
		"invalid-id": {
			batchID:        "nope",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
		"not-found": {
			batchID: testBatchID.String(),
			executeFn: func(context.Context, uuid.UUID) (domain.ImportBatch, error) {
				return domain.ImportBatch{}, domain.NewNotFoundErr("batch not found")
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCode_NotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestServer()
			api.GetImportBatchUseCase = &fakeGetImportBatch{executeFn: tt.executeFn}

			req := httptest.NewRequest(http.MethodGet, "/api/batches/"+tt.batchID, nil)
			req.SetPathValue("batchId", tt.batchID)
			w := httptest.NewRecorder()

			api.GetBatch(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var errResp ErrorResp
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Error.Code)
				return
			}

			var resp Batch
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, toBatch(domainBatch), resp)
		})
	}
}

func TestMatchEngineServer_ListBatchCandidates(t *testing.T) {
	variantID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	candidate := domain.MatchCandidate{
		ID:           uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		ImportItemID: uuid.MustParse("55555555-5555-5555-5555-555555555555"),
		VariantID:    &variantID,
		MatchType:    domain.MatchType_SKU,
		Confidence:   1.0,
		Status:       domain.ReviewStatus_AutoMatched,
		Explanation:  "exact SKU match",
		CreatedAt:    batchTime,
	}

	api := newTestServer()
	api.ListMatchCandidatesUseCase = &fakeListMatchCandidates{
		executeFn: func(_ context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error) {
			assert.Equal(t, testBatchID, batchID)
			return []domain.MatchCandidate{candidate}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/batches/"+testBatchID.String()+"/candidates", nil)
	req.SetPathValue("batchId", testBatchID.String())
	w := httptest.NewRecorder()

	api.ListBatchCandidates(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ListMatchCandidatesResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, toMatchCandidate(candidate), resp.Items[0])
}
