package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy of the session client. ErrRefreshExpired, ErrRefreshFailed and
// ErrSessionExpired are only returned after the session has been cleared.
var (
	// Credential errors
	ErrMalformedCredential = errors.New("malformed credential")
	ErrSubjectMismatch     = errors.New("access and refresh credential subjects differ")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionChanged = errors.New("session changed during refresh")

	// Refresh errors
	ErrRefreshExpired = errors.New("refresh credential expired")
	ErrRefreshFailed  = errors.New("refresh failed")

	// Storage errors
	ErrStorageUnavailable = errors.New("credential storage unavailable")

	// Transport errors
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response body")
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

// Join combines errors, skipping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
