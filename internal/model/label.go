package model

import "strings"

// Label is the classification assigned to free text.
type Label string

const (
	// LabelMalicious marks text that is very likely a scam or phishing attempt.
	LabelMalicious Label = "malicious"
	// LabelSuspicious marks text with several risk signals.
	LabelSuspicious Label = "suspicious"
	// LabelBenign marks text without notable risk signals.
	LabelBenign Label = "benign"
)

// ParseLabel normalizes s into a Label.
// The second return value is false when s is not one of the three labels.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LabelMalicious, LabelSuspicious, LabelBenign:
		return l, true
	default:
		return "", false
	}
}

// Strength is the password strength label derived from estimated entropy.
type Strength string

const (
	StrengthVeryWeak   Strength = "very_weak"
	StrengthWeak       Strength = "weak"
	StrengthReasonable Strength = "reasonable"
	StrengthStrong     Strength = "strong"
)

// Rank orders strengths from weakest (0) to strongest (3).
// Unknown values rank below very_weak.
func (s Strength) Rank() int {
	switch s {
	case StrengthVeryWeak:
		return 0
	case StrengthWeak:
		return 1
	case StrengthReasonable:
		return 2
	case StrengthStrong:
		return 3
	default:
		return -1
	}
}
