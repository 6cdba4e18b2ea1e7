package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/usecases"
	"github.com/stretchr/testify/require"
)

type fakeCreateImportBatch struct {
	executeFn func(ctx context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []usecases.RowError, error)
}

func (f *fakeCreateImportBatch) Execute(ctx context.Context, sellerID uuid.UUID, sourceName string, file io.Reader) (domain.ImportBatch, []usecases.RowError, error) {
	return f.executeFn(ctx, sellerID, sourceName, file)
}

type fakeGetImportBatch struct {
	executeFn func(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error)
}

func (f *fakeGetImportBatch) Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error) {
	return f.executeFn(ctx, batchID)
}

type fakeListMatchCandidates struct {
	executeFn func(ctx context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error)
}

func (f *fakeListMatchCandidates) Execute(ctx context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error) {
	return f.executeFn(ctx, batchID)
}

type fakeStartRecognition struct {
	executeFn func(ctx context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error)
}

func (f *fakeStartRecognition) Execute(ctx context.Context, sellerID uuid.UUID, sources []domain.SourceInput) (domain.RecognitionSession, error) {
	return f.executeFn(ctx, sellerID, sources)
}

type fakeMatchSession struct {
	executeFn func(ctx context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error)
}

func (f *fakeMatchSession) Execute(ctx context.Context, sessionID uuid.UUID, selections []domain.SourceSelection) (domain.RecognitionSession, error) {
	return f.executeFn(ctx, sessionID, selections)
}

type fakeGenerateListing struct {
	executeFn func(ctx context.Context, sessionID uuid.UUID) (domain.RecognitionSession, error)
}

func (f *fakeGenerateListing) Execute(ctx context.Context, sessionID uuid.UUID) (domain.RecognitionSession, error) {
	return f.executeFn(ctx, sessionID)
}

func serializeJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func buildCSVUpload(t *testing.T, sellerID string, fileName string, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("seller_id", sellerID))
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}
