package httpx

import (
	"fmt"
	"net/http"
)

// APIError is a client-safe error with an HTTP status. Handlers map service
// sentinel errors onto these; the message is the only detail that reaches the
// client, never stack traces or wrapped internals.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Write writes this error as a `{success:false, message}` JSON response.
func (e *APIError) Write(w http.ResponseWriter) {
	NoCache(w)
	WriteJSON(w, e.StatusCode, Envelope{Success: false, Message: e.Message})
}

// Constructors for the error taxonomy. Status codes encode the kind.

// ValidationError reports malformed or missing input (400).
func ValidationError(message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Message: message}
}

// AuthenticationError reports bad credentials or a missing/invalid/expired
// token (401).
func AuthenticationError(message string) *APIError {
	return &APIError{StatusCode: http.StatusUnauthorized, Message: message}
}

// AuthorizationError reports a role or account-state denial (403).
func AuthorizationError(message string) *APIError {
	return &APIError{StatusCode: http.StatusForbidden, Message: message}
}

// NotFoundError reports a missing resource (404).
func NotFoundError(message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Message: message}
}

// ConflictError reports a duplicate resource, e.g. re-registration (409).
func ConflictError(message string) *APIError {
	return &APIError{StatusCode: http.StatusConflict, Message: message}
}

// InternalError reports an unexpected failure with a generic message (500).
func InternalError() *APIError {
	return &APIError{StatusCode: http.StatusInternalServerError, Message: "internal server error"}
}
