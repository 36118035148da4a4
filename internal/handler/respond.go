package handler

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondAppError maps an application error onto the wire. Typed
// errors carry their own status and user-facing message; anything else
// becomes a generic internal error so repository details never leak.
func respondAppError(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		log.WithError(err).Error("Unhandled error reached the handler boundary")
		appErr = apperrors.NewInternalError("Something went wrong. Please try again.", err)
	}

	if appErr.Internal != nil {
		log.WithError(appErr).Error("Request failed")
	}

	response := &apperrors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}
