package model

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

// TestParseKind tests kind parsing from wire values.
func TestParseKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input  string
		want   Kind
		wantOK bool
	}{
		{"url", KindURL, true},
		{"PASSWORD", KindPassword, true},
		{"  text ", KindText, true},
		{"image", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%q", tc.input), func(t *testing.T) {
			t.Parallel()

			got, ok := ParseKind(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

// TestInputKinds tests that every input variant reports its kind.
func TestInputKinds(t *testing.T) {
	t.Parallel()

	inputs := map[Kind]Input{
		KindURL:      URLInput{URL: "https://example.com"},
		KindPassword: PasswordInput{Password: "hunter2"},
		KindText:     TextInput{Text: "hello"},
	}

	for want, in := range inputs {
		if in.Kind() != want {
			t.Errorf("expected kind %s, got %s", want, in.Kind())
		}
	}
	if len(Kinds()) != len(inputs) {
		t.Errorf("expected %d kinds, got %d", len(inputs), len(Kinds()))
	}
}

// TestPasswordInputNeverPrintsSecret tests that formatting and logging
// a PasswordInput does not reveal the password.
func TestPasswordInputNeverPrintsSecret(t *testing.T) {
	t.Parallel()

	in := PasswordInput{Password: "correct-horse-battery"}

	for _, format := range []string{"%v", "%+v", "%s", "%#v"} {
		if out := fmt.Sprintf(format, in); strings.Contains(out, in.Password) {
			t.Errorf("format %s leaked the password: %s", format, out)
		}
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("checking", "input", in)
	if strings.Contains(buf.String(), in.Password) {
		t.Errorf("log output leaked the password: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "length=21") {
		t.Errorf("expected length attribute, got: %s", buf.String())
	}
}
