package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON encodes payload first so an encoding failure can still be
// answered with a 500
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a failed service call and answers with the mapped
// status and user message
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(opName, "error", err)
	} else {
		log.Warn(opName, "error", err, "status", status)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgUnavailableError    = "Recipe service is unavailable. Please try again later."
	ErrMsgTimeoutError        = "Storage did not answer in time. Please try again."
	ErrMsgRecipeNotFoundError = "Recipe not found"
	ErrMsgRecipeGoneError     = "Recipe was unregistered while it was being saved"
	ErrMsgDuplicateIDError    = "A recipe with that id is already registered"
	ErrMsgPlayerOfflineError  = "Player is not online"
	ErrMsgStorageError        = "Recipe storage failed. The change is kept in memory only."
)

// mapServiceErrorToUserMessage maps domain errors to HTTP statuses and
// messages. Builder validation messages describe the caller's own input and
// are returned as-is.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict, ErrMsgDuplicateIDError
	case errors.Is(err, domain.ErrRecipeNotFound):
		return http.StatusNotFound, ErrMsgRecipeNotFoundError
	case errors.Is(err, domain.ErrPlayerOffline):
		return http.StatusConflict, ErrMsgPlayerOfflineError
	case errors.Is(err, domain.ErrServiceClosed):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, ErrMsgStorageError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrMsgTimeoutError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
