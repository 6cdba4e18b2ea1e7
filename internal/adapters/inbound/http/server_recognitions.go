package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
)

// StartRecognition opens a recognition session and runs the recognize stage
// over every submitted source.
func (api MatchEngineServer) StartRecognition(w http.ResponseWriter, r *http.Request) {
	var req StartRecognitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	sources := make([]domain.SourceInput, 0, len(req.Sources))
	for _, s := range req.Sources {
		sources = append(sources, toSourceInput(s))
	}

	session, err := api.StartRecognitionUseCase.Execute(r.Context(), req.SellerID, sources)
	if err != nil {
		api.Logger.Printf("Error starting recognition session: %v", err)
		respondError(w, toError(err))
		return
	}

	respondJSON(w, http.StatusCreated, toSession(session))
}

// MatchSession advances a session through the match stage, applying any
// explicit user selections before scoring the rest.
func (api MatchEngineServer) MatchSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("sessionId"))
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "session id must be a valid uuid"))
		return
	}

	var req MatchSessionReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, newErrorResp(ErrorCode_BadRequest, fmt.Sprintf("invalid request body: %v", err)))
			return
		}
	}

	selections := make([]domain.SourceSelection, 0, len(req.Selections))
	for _, s := range req.Selections {
		selections = append(selections, toSourceSelection(s))
	}

	session, err := api.MatchSessionUseCase.Execute(r.Context(), sessionID, selections)
	if err != nil {
		api.Logger.Printf("Error matching session %s: %v", sessionID, err)
		respondError(w, toError(err))
		return
	}

	respondJSON(w, http.StatusOK, toSession(session))
}

// GenerateListing runs the generate stage, producing listing copy for every
// selected candidate.
func (api MatchEngineServer) GenerateListing(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("sessionId"))
	if err != nil {
		respondError(w, newErrorResp(ErrorCode_BadRequest, "session id must be a valid uuid"))
		return
	}

	session, err := api.GenerateListingUseCase.Execute(r.Context(), sessionID)
	if err != nil {
		api.Logger.Printf("Error generating listings for session %s: %v", sessionID, err)
		respondError(w, toError(err))
		return
	}

	respondJSON(w, http.StatusOK, toSession(session))
}
