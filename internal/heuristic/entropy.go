package heuristic

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/riskscope/internal/model"
)

// Character class pool sizes used by the entropy estimate.
const (
	poolLower  = 26
	poolUpper  = 26
	poolDigit  = 10
	poolSymbol = 32
)

// Entropy thresholds in bits for the strength labels.
const (
	WeakThreshold       = 28.0
	ReasonableThreshold = 40.0
	StrongThreshold     = 60.0
)

// CharsetPool returns the size of the character pool the password draws from.
// Each class (lowercase, uppercase, digit, symbol) contributes once when at
// least one character of that class is present. Letters without case, such as
// CJK ideographs, belong to no class.
func CharsetPool(password string) int {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			symbol = true
		}
	}

	pool := 0
	if lower {
		pool += poolLower
	}
	if upper {
		pool += poolUpper
	}
	if digit {
		pool += poolDigit
	}
	if symbol {
		pool += poolSymbol
	}
	return pool
}

// EntropyBits estimates password entropy as log2(pool) * length,
// where length counts characters rather than bytes.
// It returns 0 for an empty pool.
func EntropyBits(password string) float64 {
	pool := CharsetPool(password)
	if pool == 0 {
		return 0
	}
	return math.Log2(float64(pool)) * float64(utf8.RuneCountInString(password))
}

// StrengthFor maps an entropy estimate to a strength label.
// Common passwords are always very_weak regardless of entropy.
func StrengthFor(bits float64, common bool) model.Strength {
	switch {
	case common || bits < WeakThreshold:
		return model.StrengthVeryWeak
	case bits < ReasonableThreshold:
		return model.StrengthWeak
	case bits < StrongThreshold:
		return model.StrengthReasonable
	default:
		return model.StrengthStrong
	}
}
