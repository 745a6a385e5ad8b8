package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
)

// APIError is returned for any non-2xx backend response
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string // backend provided message, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Unwrap maps the status onto the error taxonomy so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return apperrors.ErrBackend
	}
}

// UserMessage is the text shown in the failure toast
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return "Your session is not authorised for this action"
	case http.StatusForbidden:
		return "You do not have permission to do that"
	case http.StatusNotFound:
		return "The requested record could not be found"
	}
	if e.Status >= 500 {
		return "The server encountered an error, please try again later"
	}
	return fmt.Sprintf("Request failed (%d)", e.Status)
}

// MessageFrom returns the user-facing message for any error produced by the client
func MessageFrom(err error, fallback string) string {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// backendMessage extracts the "message" field backends put in error bodies
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
