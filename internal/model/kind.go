package model

import "strings"

// Kind identifies which analyzer an input is routed to.
type Kind string

const (
	// KindURL is a URL submitted for reputation analysis.
	KindURL Kind = "url"

	// KindPassword is a password checked for breaches and strength.
	KindPassword Kind = "password"

	// KindText is free text classified for phishing and scam content.
	KindText Kind = "text"
)

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindURL, KindPassword, KindText}
}

// ParseKind converts a wire value into a Kind.
// Matching is case-insensitive and ignores surrounding whitespace.
// The second return value is false for unsupported kinds.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", false
	}
	return k, true
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindURL, KindPassword, KindText:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the kind.
func (k Kind) String() string {
	return string(k)
}
