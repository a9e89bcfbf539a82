package password

import (
	"errors"
	"strings"
	"testing"
)

func TestSHA1Hex(t *testing.T) {
	t.Parallel()

	if got := SHA1Hex("password123"); got != "CBFDAC6008F9CAB4083784CBD1874F76618D2A97" {
		t.Errorf("SHA1Hex() = %s", got)
	}
}

func TestFingerprinter(t *testing.T) {
	t.Parallel()

	t.Run("keyed and stable", func(t *testing.T) {
		t.Parallel()

		a, err := NewFingerprinter([]byte("key-a"))
		if err != nil {
			t.Fatalf("NewFingerprinter() error = %v", err)
		}
		b, err := NewFingerprinter([]byte("key-b"))
		if err != nil {
			t.Fatalf("NewFingerprinter() error = %v", err)
		}

		if a.Fingerprint("hunter2") != a.Fingerprint("hunter2") {
			t.Error("fingerprint is not deterministic")
		}
		if a.Fingerprint("hunter2") == b.Fingerprint("hunter2") {
			t.Error("different keys produced the same fingerprint")
		}
		if len(a.Fingerprint("hunter2")) != 2*fingerprintSize {
			t.Errorf("fingerprint length = %d", len(a.Fingerprint("hunter2")))
		}
	})

	t.Run("ref prefix", func(t *testing.T) {
		t.Parallel()

		fp, err := NewFingerprinter(nil)
		if err != nil {
			t.Fatalf("NewFingerprinter() error = %v", err)
		}
		ref := fp.Ref("hunter2")
		if !strings.HasPrefix(ref, FingerprintPrefix) || strings.Contains(ref, "hunter2") {
			t.Errorf("Ref() = %s", ref)
		}
	})

	t.Run("key too long", func(t *testing.T) {
		t.Parallel()

		_, err := NewFingerprinter(make([]byte, 65))
		if !errors.Is(err, ErrFingerprintKey) {
			t.Errorf("error = %v, want ErrFingerprintKey", err)
		}
	})
}
