package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const maxUploadBytes = 32 << 20

// UploadBatch ingests one multipart CSV upload and stores it as a pending
// import batch.
func (api MatchEngineServer) UploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, fmt.Sprintf("invalid multipart request: %v", err)))
		return
	}

	sellerID, err := uuid.Parse(r.FormValue("seller_id"))
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "seller_id must be a valid uuid"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "a csv file upload named 'file' is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	batch, rejected, err := api.CreateImportBatchUseCase.Execute(r.Context(), sellerID, header.Filename, file)
	if err != nil {
		api.Logger.Printf("Error creating import batch: %v", err)
		respondError(w, toError(err))
		return
	}

	respondJSON(w, http.StatusCreated, UploadBatchResp{
		Batch:    toBatch(batch),
		Rejected: toRowErrors(rejected),
	})
}

// GetBatch returns one batch header with its matching progress counters.
func (api MatchEngineServer) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(r.PathValue("batchId"))
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "batch id must be a valid uuid"))
		return
	}

	batch, err := api.GetImportBatchUseCase.Execute(r.Context(), batchID)
	if err != nil {
		api.Logger.Printf("Error getting import batch: %v", err)
		respondError(w, toError(err))
		return
	}

	respondJSON(w, http.StatusOK, toBatch(batch))
}

// ListBatchCandidates returns every persisted match outcome of a batch in
// row order.
func (api MatchEngineServer) ListBatchCandidates(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(r.PathValue("batchId"))
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "batch id must be a valid uuid"))
		return
	}

	candidates, err := api.ListMatchCandidatesUseCase.Execute(r.Context(), batchID)
	if err != nil {
		api.Logger.Printf("Error listing match candidates: %v", err)
		respondError(w, toError(err))
		return
	}

	resp := ListMatchCandidatesResp{Items: []MatchCandidate{}}
	for _, c := range candidates {
		resp.Items = append(resp.Items, toMatchCandidate(c))
	}
	respondJSON(w, http.StatusOK, resp)
}
