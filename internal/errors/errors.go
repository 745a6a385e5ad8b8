package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard
var (
	// Transport and backend errors
	ErrNetwork       = errors.New("network failure")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrBackend       = errors.New("backend error")
	ErrNotFound      = errors.New("not found")

	// Form errors
	ErrValidation = errors.New("validation failed")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
