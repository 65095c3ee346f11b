package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/services/account"
	"github.com/mcoot/rasync/internal/services/session"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Index is the position of the rejected event in a batch
	Index *int `json:"index,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidGame        = "INVALID_GAME"
	CodeInvalidEvent       = "INVALID_EVENT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAuthRejected       = "AUTH_REJECTED"
	CodeLoginRequired      = "LOGIN_REQUIRED"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeNoActiveSession    = "NO_ACTIVE_SESSION"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var eventErr *session.EventError
	if errors.As(err, &eventErr) && !errors.Is(err, model.ErrNoActiveSession) {
		index := eventErr.Index
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidEvent, eventErr.Error(), &index}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrInvalidGameIdentifier):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidGame, Message: "Game id or hash is required"}}
	case errors.Is(err, model.ErrInvalidEvent):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidEvent, Message: "Invalid runtime event"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeGameNotFound, Message: "Game not found"}}
	case errors.Is(err, model.ErrNoActiveSession), errors.Is(err, model.ErrSessionClosed):
		return &httpError{http.StatusConflict, APIError{Code: CodeNoActiveSession, Message: "No game session is active"}}
	case errors.Is(err, model.ErrAuthRequired):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeLoginRequired, Message: "Login required"}}
	case errors.Is(err, model.ErrAuthRejected):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeAuthRejected, Message: "Credentials rejected by the achievements service"}}
	case errors.Is(err, model.ErrNetwork), errors.Is(err, model.ErrInvalidResponse):
		return &httpError{http.StatusBadGateway, APIError{Code: CodeUpstreamFailure, Message: "Achievements service unavailable"}}

	// Map account errors
	case errors.Is(err, account.ErrInvalidCredentials):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidCredentials, Message: "Username and password are required"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
