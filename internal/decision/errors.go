package decision

import "errors"

var (
	// ErrUnknownKind is returned for a kind without a policy.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrFindingsMismatch is returned when the findings were produced for a
	// different kind than the one being decided.
	ErrFindingsMismatch = errors.New("findings do not match kind")
)
