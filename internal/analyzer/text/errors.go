package text

import "errors"

var (
	// ErrInvalidReply is returned when a model reply contains a structured
	// payload that cannot be decoded.
	ErrInvalidReply = errors.New("invalid classifier reply")

	// ErrNoChoices is returned when the completion response has no choices.
	ErrNoChoices = errors.New("completion response has no choices")
)
