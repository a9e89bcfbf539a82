package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned for a tagged input whose type has no analyzer.
	ErrUnknownType = errors.New("unknown_type")

	// ErrMissingPayload is returned when a tagged input has no value for its type.
	ErrMissingPayload = errors.New("missing input payload")

	// ErrInvalidInput is returned when a tagged input is not a JSON object
	// or its value cannot be analyzed, such as a blank URL.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnalyzerUnavailable is returned when no analyzer is configured for a kind.
	ErrAnalyzerUnavailable = errors.New("analyzer unavailable")
)

// UnknownTypeError reports the unrecognized type of a tagged input.
type UnknownTypeError struct {
	Type string
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown input type %q", e.Type)
}

// Unwrap returns ErrUnknownType.
func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}
