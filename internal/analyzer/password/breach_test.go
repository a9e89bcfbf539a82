package password

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/riskscope/internal/transport"
)

func noSleep(context.Context, time.Duration) error { return nil }

type rangeServer struct {
	*httptest.Server
	calls   atomic.Int32
	paths   chan string
	padding chan string
}

func newRangeServer(t *testing.T, status int, body string) *rangeServer {
	t.Helper()
	rs := &rangeServer{
		paths:   make(chan string, 16),
		padding: make(chan string, 16),
	}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.calls.Add(1)
		rs.paths <- r.URL.Path
		rs.padding <- r.Header.Get("Add-Padding")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestRangeClient(rs *rangeServer, opts ...RangeOption) *RangeClient {
	retrier := transport.NewRetrier(rs.Client(),
		transport.WithSleep(noSleep),
		transport.WithRetryBudgets(1, 1),
	)
	return NewRangeClient(retrier, append([]RangeOption{WithRangeBaseURL(rs.URL)}, opts...)...)
}

const password123Range = "003D68EB55068C33ACE09247EE4C639306B:3\r\n" +
	"1E4C9B93F3F0682250B6CF8331B7EE68FD8:9659365\r\n" +
	"C6008F9CAB4083784CBD1874F76618D2A98:0\r\n" +
	"C6008F9CAB4083784CBD1874F76618D2A97:2254650\r\n"

func TestRangeClientSendsOnlyPrefix(t *testing.T) {
	t.Parallel()

	rs := newRangeServer(t, http.StatusOK, password123Range)
	c := newTestRangeClient(rs)

	digest := SHA1Hex("password123")
	count, err := c.BreachCount(context.Background(), digest)
	if err != nil {
		t.Fatalf("BreachCount() error = %v", err)
	}
	if count != 2254650 {
		t.Errorf("count = %d, want 2254650", count)
	}

	path := <-rs.paths
	if path != "/range/CBFDA" {
		t.Errorf("path = %s, want /range/CBFDA", path)
	}
	if strings.Contains(path, digest[PrefixLen:]) {
		t.Error("request disclosed the digest suffix")
	}
	if got := <-rs.padding; got != "true" {
		t.Errorf("Add-Padding = %q, want true", got)
	}
}

func TestRangeClientCachesPrefix(t *testing.T) {
	t.Parallel()

	rs := newRangeServer(t, http.StatusOK, password123Range)
	c := newTestRangeClient(rs)

	for range 3 {
		if _, err := c.BreachCount(context.Background(), SHA1Hex("password123")); err != nil {
			t.Fatalf("BreachCount() error = %v", err)
		}
	}
	if got := rs.calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
	if c.cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", c.cache.Len())
	}
}

func TestRangeClientLogsCacheSize(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rs := newRangeServer(t, http.StatusOK, password123Range)
	c := newTestRangeClient(rs, WithRangeLogger(logger))

	if _, err := c.BreachCount(context.Background(), SHA1Hex("password123")); err != nil {
		t.Fatalf("BreachCount() error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "cached_prefixes=1") {
		t.Errorf("expected cached_prefixes=1 in %q", out)
	}
}

func TestRangeClientMissIsClean(t *testing.T) {
	t.Parallel()

	rs := newRangeServer(t, http.StatusOK, "0018A45C4D1DEF81644B54AB7F969B88D65:1\n")
	c := newTestRangeClient(rs)

	count, err := c.BreachCount(context.Background(), SHA1Hex("password123"))
	if err != nil {
		t.Fatalf("BreachCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestRangeClientErrors(t *testing.T) {
	t.Parallel()

	t.Run("server failure", func(t *testing.T) {
		t.Parallel()

		rs := newRangeServer(t, http.StatusServiceUnavailable, "")
		c := newTestRangeClient(rs)

		_, err := c.BreachCount(context.Background(), SHA1Hex("password123"))
		if !errors.Is(err, transport.ErrRetriesExhausted) {
			t.Errorf("error = %v, want ErrRetriesExhausted", err)
		}
		if c.cache.Len() != 0 {
			t.Error("failed response was cached")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		rs := newRangeServer(t, http.StatusOK, "not a range line\n")
		c := newTestRangeClient(rs)

		_, err := c.BreachCount(context.Background(), SHA1Hex("password123"))
		if !errors.Is(err, ErrMalformedRange) {
			t.Errorf("error = %v, want ErrMalformedRange", err)
		}
	})

	t.Run("invalid digest", func(t *testing.T) {
		t.Parallel()

		rs := newRangeServer(t, http.StatusOK, "")
		c := newTestRangeClient(rs)

		_, err := c.BreachCount(context.Background(), "CBFDA")
		if !errors.Is(err, ErrInvalidDigest) {
			t.Errorf("error = %v, want ErrInvalidDigest", err)
		}
		if rs.calls.Load() != 0 {
			t.Error("invalid digest reached the server")
		}
	})
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	got, err := ParseRange(strings.NewReader("abc:1\n\nDEF: 20 \n"))
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}
	if got["ABC"] != 1 || got["DEF"] != 20 || len(got) != 2 {
		t.Errorf("ParseRange() = %v", got)
	}

	if _, err := ParseRange(strings.NewReader("ABC:-1\n")); !errors.Is(err, ErrMalformedRange) {
		t.Errorf("negative count error = %v, want ErrMalformedRange", err)
	}
}
