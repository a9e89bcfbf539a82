package password

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA-1 is mandated by the range protocol and breach lists
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// fingerprintSize is the BLAKE2b output size in bytes.
	fingerprintSize = 16

	// FingerprintPrefix marks password fingerprints in input references.
	FingerprintPrefix = "pwd:"
)

// SHA1Hex returns the upper-case hex SHA-1 digest of s, the format used by
// breach lists and the range protocol.
func SHA1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // see import
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Fingerprinter computes keyed digests of secrets.
// The same key always yields the same fingerprint for the same input.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a Fingerprinter with key.
// An empty key generates a random per-process key, which makes
// fingerprints stable only for the lifetime of the process.
func NewFingerprinter(key []byte) (*Fingerprinter, error) {
	if len(key) > blake2b.Size {
		return nil, ErrFingerprintKey
	}
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate fingerprint key: %w", err)
		}
	}
	return &Fingerprinter{key: append([]byte(nil), key...)}, nil
}

// Fingerprint returns the hex keyed BLAKE2b-128 digest of s.
func (f *Fingerprinter) Fingerprint(s string) string {
	h, err := blake2b.New(fingerprintSize, f.key)
	if err != nil {
		// Unreachable: size and key length are validated in NewFingerprinter.
		panic(err)
	}
	_, _ = h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// Ref returns the input reference for a password: FingerprintPrefix + Fingerprint.
func (f *Fingerprinter) Ref(s string) string {
	return FingerprintPrefix + f.Fingerprint(s)
}
