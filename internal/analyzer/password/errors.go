package password

import "errors"

var (
	// ErrInvalidDigest is returned when a breach lookup receives something
	// other than a 40 character hex SHA-1 digest.
	ErrInvalidDigest = errors.New("invalid SHA-1 digest")

	// ErrMalformedRange is returned when a range response line cannot be parsed.
	ErrMalformedRange = errors.New("malformed range response")

	// ErrFingerprintKey is returned when the fingerprint key is longer than 64 bytes.
	ErrFingerprintKey = errors.New("fingerprint key must be at most 64 bytes")
)
