package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"127.0.0.1:9050": true,
		"localhost:1080": true,
		"[::1]:9050":     true,
		"127.0.0.1":      false,
		":9050":          false,
		"host:0":         false,
		"host:65536":     false,
		"host:abc":       false,
		"":               false,
	}

	for addr, want := range tests {
		if got := isValidProxyAddress(addr); got != want {
			t.Errorf("isValidProxyAddress(%q): expected %v, got %v", addr, want, got)
		}
	}
}

// TestNewHTTPClient tests client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid proxy address", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPClient(Options{ProxyAddress: "not-a-proxy"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("accepts socks5 proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(Options{ProxyAddress: "127.0.0.1:9050", Timeout: time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != time.Second {
			t.Errorf("expected timeout 1s, got %v", client.Timeout)
		}
	})

	t.Run("sets user agent", func(t *testing.T) {
		t.Parallel()

		gotCh := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			gotCh <- r.Header.Get("User-Agent")
		}))
		defer srv.Close()

		client, err := NewHTTPClient(Options{UserAgent: "test-agent/1.0"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()

		if got := <-gotCh; got != "test-agent/1.0" {
			t.Errorf("expected user agent test-agent/1.0, got %q", got)
		}
	})
}

// TestStatusError tests StatusError classification helpers.
func TestStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code       int
		wantClient bool
		wantAuth   bool
	}{
		{http.StatusBadRequest, true, false},
		{http.StatusUnauthorized, true, true},
		{http.StatusForbidden, true, true},
		{http.StatusNotFound, true, false},
		{http.StatusTooManyRequests, false, false},
		{http.StatusInternalServerError, false, false},
	}

	for _, tt := range tests {
		err := error(&StatusError{StatusCode: tt.code})
		if got := IsClientError(err); got != tt.wantClient {
			t.Errorf("IsClientError(%d): expected %v, got %v", tt.code, tt.wantClient, got)
		}
		if got := IsAuthError(err); got != tt.wantAuth {
			t.Errorf("IsAuthError(%d): expected %v, got %v", tt.code, tt.wantAuth, got)
		}
	}

	if IsClientError(errors.New("plain")) {
		t.Error("plain errors are not client errors")
	}
}
