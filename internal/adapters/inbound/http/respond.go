package http

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is the machine-readable error class returned to API clients.
type ErrorCode string

const (
	ErrorCode_BadRequest    ErrorCode = "BAD_REQUEST"
	ErrorCode_NotFound      ErrorCode = "NOT_FOUND"
	ErrorCode_Conflict      ErrorCode = "CONFLICT"
	ErrorCode_InternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResp is the uniform error envelope of the REST API.
type ErrorResp struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

func newErrorResp(code ErrorCode, message string) ErrorResp {
	resp := ErrorResp{}
	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err ErrorResp) {
	statusCode := http.StatusInternalServerError
	switch err.Error.Code {
	case ErrorCode_BadRequest:
		statusCode = http.StatusBadRequest
	case ErrorCode_NotFound:
		statusCode = http.StatusNotFound
	case ErrorCode_Conflict:
		statusCode = http.StatusConflict
	}
	respondJSON(w, statusCode, err)
}
