package model

import "log/slog"

// Input is one analysis request. It is a closed set of variants:
// URLInput, PasswordInput and TextInput.
// Inputs are created per request and never persisted directly.
type Input interface {
	// Kind returns the analyzer kind this input is routed to.
	Kind() Kind

	isInput()
}

// URLInput asks for a reputation verdict on a URL.
type URLInput struct {
	URL string
}

// Kind implements Input.
func (URLInput) Kind() Kind { return KindURL }
func (URLInput) isInput()   {}

// PasswordInput asks for a breach and strength assessment of a password.
// The raw value must never leave the current call: String and LogValue
// are overridden so that it cannot end up in logs or error messages.
type PasswordInput struct {
	Password string
}

// Kind implements Input.
func (PasswordInput) Kind() Kind { return KindPassword }
func (PasswordInput) isInput()   {}

// String implements fmt.Stringer without exposing the password.
func (PasswordInput) String() string { return "PasswordInput{***}" }

// GoString implements fmt.GoStringer so %#v is also safe.
func (PasswordInput) GoString() string { return "model.PasswordInput{***}" }

// LogValue implements slog.LogValuer.
func (p PasswordInput) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("length", len([]rune(p.Password))))
}

// TextInput asks for a phishing/scam classification of free text.
type TextInput struct {
	Text string
}

// Kind implements Input.
func (TextInput) Kind() Kind { return KindText }
func (TextInput) isInput()   {}
