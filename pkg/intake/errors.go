package intake

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	outcome := recorder.Record(ctx, req)
//	if errors.Is(outcome.Err, intake.ErrRetriesExhausted) {
//	    // every retry hit a transient failure
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingField indicates a submission lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrRetriesExhausted marks a write that failed on every allowed attempt.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrServerFailed indicates the HTTP listener could not be started or crashed.
	ErrServerFailed = errors.New("server failed")
)

// ValidationError reports the required fields a submission is missing.
// It never reaches the database layer.
type ValidationError struct {
	Form   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Form, ErrMissingField, strings.Join(e.Fields, ", "))
}

// Unwrap lets errors.Is match ErrMissingField.
func (e *ValidationError) Unwrap() error {
	return ErrMissingField
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrServerFailed):
		return ExitServerError
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// usageErrorPatterns are the message fragments cobra uses for bad invocations.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
}
