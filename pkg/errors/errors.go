package errors

import (
	"fmt"
	"net/http"
)

// ErrorType classifies the outcomes the bot reports back to users.
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeAuthentication    ErrorType = "authentication"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeRosterUnavailable ErrorType = "roster_unavailable"
	ErrorTypeAllDriversTaken   ErrorType = "all_drivers_taken"
	ErrorTypeDriverTaken       ErrorType = "driver_taken"
	ErrorTypeStorage           ErrorType = "storage"
	ErrorTypeUpstream          ErrorType = "upstream"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError is a structured application error. None of these types is
// fatal to the process; handlers translate them into short user-facing
// messages and the dispatcher keeps serving.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewRosterUnavailableError reports that no usable roster is loaded.
func NewRosterUnavailableError() *AppError {
	return &AppError{
		Type:       ErrorTypeRosterUnavailable,
		Message:    "F1 data is not currently available. Please try again in a few moments.",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewAllDriversTakenError reports that every driver is already claimed.
func NewAllDriversTakenError() *AppError {
	return &AppError{
		Type:       ErrorTypeAllDriversTaken,
		Message:    "All drivers have been taken. Check the leaderboard to see who picked whom.",
		StatusCode: http.StatusConflict,
	}
}

// NewNoDriversAvailableError reports that the chosen team lost its
// last free driver between the team step and the driver step.
func NewNoDriversAvailableError(team string) *AppError {
	return &AppError{
		Type:       ErrorTypeAllDriversTaken,
		Message:    fmt.Sprintf("No drivers from %s are available anymore. Use /pick to start over.", team),
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"team": team},
	}
}

// NewDriverTakenError reports a lost commit race for a specific driver.
func NewDriverTakenError(driver string) *AppError {
	return &AppError{
		Type:       ErrorTypeDriverTaken,
		Message:    fmt.Sprintf("%s was just taken by another user. Use /pick to choose a different driver.", driver),
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"driver": driver},
	}
}

// NewStorageError wraps a backing-store failure. The user sees a
// generic apology; the wrapped error goes to the logs.
func NewStorageError(internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Message:    "Something went wrong saving your pick. Please try again.",
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewUpstreamError wraps a roster-source failure.
func NewUpstreamError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
