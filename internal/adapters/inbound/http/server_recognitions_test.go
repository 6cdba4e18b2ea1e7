package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSessionID = uuid.MustParse("66666666-6666-6666-6666-666666666666")
	sessionTime   = time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
)

func recognizedSession() domain.RecognitionSession {
	return domain.RecognitionSession{
		ID:       testSessionID,
		SellerID: testSellerID,
		Stage:    domain.SessionStage_Match,
		Sources:  []domain.SourceInput{{Kind: domain.SourceKind_Text, Text: "acme widget"}},
		Recognized: []domain.SourceResult{{
			Index:   0,
			Query:   "acme widget",
			Outcome: domain.SourceOutcome_OK,
			Tier:    domain.ConfidenceTier_Medium,
			Action:  domain.SystemAction_ShowMultipleCandidates,
			Candidates: []domain.RankedCandidate{{
				Candidate: domain.Candidate{
					Ref:           domain.CatalogRef{ProductID: uuid.MustParse("77777777-7777-7777-7777-777777777777"), VariantID: uuid.MustParse("88888888-8888-8888-8888-888888888888")},
					Title:         "Acme Widget",
					CombinedScore: 0.72,
				},
				AdjustedScore: 0.72,
				Rank:          1,
			}},
		}},
		CreatedAt: sessionTime,
		UpdatedAt: sessionTime,
	}
}

func TestMatchEngineServer_StartRecognition(t *testing.T) {
	tests := map[string]struct {
		requestBody    []byte
		executeFn      func(ctx context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error)
		expectedStatus int
		expectedCode   ErrorCode
	}{
		"success": {
			requestBody: serializeJSON(t, StartRecognitionReq{
				SellerID: testSellerID,
				Sources:  []SourceReq{{Kind: "TEXT", Text: "acme widget"}},
			}),
			executeFn: func(_ context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error) {
				assert.Equal(t, testSellerID, sellerID)
				require.Len(t, sources, 1)
				assert.Equal(t, domain.SourceKind_Text, sources[0].Kind)
				assert.Equal(t, "acme widget", sources[0].Text)
				return recognizedSession(), nil
			},
			expectedStatus: http.StatusCreated,
		},
		"invalid-json-body": {
			requestBody:    []byte(`{"sources": [`),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
		"invalid-source": {
			requestBody: serializeJSON(t, StartRecognitionReq{
				SellerID: testSellerID,
				Sources:  []SourceReq{{Kind: "TEXT"}},
			}),
			executeFn: func(context.Context, uuid.UUID, []domain.SourceInput) (domain.RecognitionSession, error) {
				return domain.RecognitionSession{}, domain.NewValidationErr("text source requires a query")
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestServer()
			api.StartRecognitionUseCase = &fakeStartRecognition{executeFn: tt.executeFn}

			req := httptest.NewRequest(http.MethodPost, "/api/recognitions", bytes.NewReader(tt.requestBody))
			w := httptest.NewRecorder()

			api.StartRecognition(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var errResp ErrorResp
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Error.Code)
				return
			}

			var resp Session
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, toSession(recognizedSession()), resp)
		})
	}
}

func TestMatchEngineServer_MatchSession(t *testing.T) {
	acceptRank := 2
	tests := map[string]struct {
		sessionID      string
		requestBody    []byte
		executeFn      func(ctx context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error)
		expectedStatus int
		expectedCode   ErrorCode
	}{
		"success-with-selections": {
			sessionID: testSessionID.String(),
			requestBody: serializeJSON(t, MatchSessionReq{
				Selections: []SelectionReq{{SourceIndex: 0, AcceptRank: &acceptRank}},
			}),
			executeFn: func(_ context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error) {
				assert.Equal(t, testSessionID, sessionID)
				require.Len(t, selections, 1)
				require.NotNil(t, selections[0].AcceptRank)
				assert.Equal(t, 2, *selections[0].AcceptRank)
				return recognizedSession(), nil
			},
			expectedStatus: http.StatusOK,
		},
		"success-empty-body": {
			sessionID: testSessionID.String(),
			executeFn: func(_ context.Context, _ uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error) {
				assert.Empty(t, selections)
				return recognizedSession(), nil
			},
			expectedStatus: http.StatusOK,
		},
		"invalid-session-id": {
			sessionID:      "nope",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCode_BadRequest,
		},
		"wrong-stage": {
			sessionID: testSessionID.String(),
			executeFn: func(context.Context, uuid.UUID, []domain.SourceSelection) (domain.RecognitionSession, error) {
				return domain.RecognitionSession{}, domain.NewStageOrderErr("session is in stage COMPLETED, expected MATCH")
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCode_Conflict,
		},
		"concurrent-update": {
			sessionID: testSessionID.String(),
			executeFn: func(context.Context, uuid.UUID, []domain.SourceSelection) (domain.RecognitionSession, error) {
				return domain.RecognitionSession{}, domain.NewConflictErr("session is locked by another update")
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrorCode_Conflict,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestServer()
			api.MatchSessionUseCase = &fakeMatchSession{executeFn: tt.executeFn}

			req := httptest.NewRequest(http.MethodPost, "/api/recognitions/"+tt.sessionID+"/match", bytes.NewReader(tt.requestBody))
			req.SetPathValue("sessionId", tt.sessionID)
			w := httptest.NewRecorder()

			api.MatchSession(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var errResp ErrorResp
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Error.Code)
			}
		})
	}
}

func TestMatchEngineServer_GenerateListing(t *testing.T) {
	generated := recognizedSession()
	generated.Stage = domain.SessionStage_Completed
	generated.Generated = []domain.GeneratedListing{{
		SourceIndex: 0,
		Title:       "Acme Widget Pro",
		Description: "A sturdy widget.",
		Model:       "listing-model",
		CreatedAt:   sessionTime,
	}}

	api := newTestServer()
	api.GenerateListingUseCase = &fakeGenerateListing{
		executeFn: func(_ context.Context, sessionID uuid.UUID) (domain.RecognitionSession, error) {
			assert.Equal(t, testSessionID, sessionID)
			return generated, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/recognitions/"+testSessionID.String()+"/generate", nil)
	req.SetPathValue("sessionId", testSessionID.String())
	w := httptest.NewRecorder()

	api.GenerateListing(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Stage)
	require.Len(t, resp.Generated, 1)
	assert.Equal(t, "Acme Widget Pro", resp.Generated[0].Title)
}
