package password

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/riskscope/internal/transport"
)

const (
	// DefaultRangeBaseURL is the public range API endpoint.
	DefaultRangeBaseURL = "https://api.pwnedpasswords.com"

	// PrefixLen is the number of digest characters disclosed to the range service.
	PrefixLen = 5
)

// BreachLookup reports how many times a SHA-1 digest appears in known breaches.
// A nil error with count 0 is a definitive clean result.
type BreachLookup interface {
	BreachCount(ctx context.Context, sha1Hex string) (int, error)
}

// RangeClient is a BreachLookup backed by the k-anonymity range protocol.
//
// Only the first PrefixLen characters of the digest are sent. The service
// answers with every suffix sharing that prefix and the client matches the
// rest locally. Responses are cached per prefix.
type RangeClient struct {
	baseURL string
	retrier *transport.Retrier
	cache   *PrefixCache
	padding bool
	logger  *slog.Logger
}

// RangeOption configures a RangeClient.
type RangeOption func(*RangeClient)

// WithRangeBaseURL overrides the service endpoint.
func WithRangeBaseURL(baseURL string) RangeOption {
	return func(c *RangeClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCacheTTL replaces the prefix cache with a new one using ttl.
func WithCacheTTL(ttl time.Duration) RangeOption {
	return func(c *RangeClient) {
		c.cache = NewPrefixCache(ttl)
	}
}

// WithPadding toggles the Add-Padding request header, which makes every
// response the same size regardless of prefix.
func WithPadding(enabled bool) RangeOption {
	return func(c *RangeClient) {
		c.padding = enabled
	}
}

// WithRangeLogger sets the logger.
func WithRangeLogger(logger *slog.Logger) RangeOption {
	return func(c *RangeClient) {
		c.logger = logger
	}
}

// NewRangeClient creates a RangeClient that sends requests through retrier.
func NewRangeClient(retrier *transport.Retrier, opts ...RangeOption) *RangeClient {
	c := &RangeClient{
		baseURL: DefaultRangeBaseURL,
		retrier: retrier,
		padding: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewPrefixCache(DefaultCacheTTL)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BreachCount implements BreachLookup.
func (c *RangeClient) BreachCount(ctx context.Context, sha1Hex string) (int, error) {
	digest := strings.ToUpper(sha1Hex)
	if !isSHA1Hex(digest) {
		return 0, ErrInvalidDigest
	}
	prefix, suffix := digest[:PrefixLen], digest[PrefixLen:]

	suffixes, ok := c.cache.Get(prefix)
	if !ok {
		var err error
		suffixes, err = c.fetchRange(ctx, prefix)
		if err != nil {
			return 0, err
		}
		c.cache.Put(prefix, suffixes)
		c.logger.Debug("breach range cached", "prefix", prefix, "cached_prefixes", c.cache.Len())
	}

	return suffixes[suffix], nil
}

func (c *RangeClient) fetchRange(ctx context.Context, prefix string) (map[string]int, error) {
	c.logger.Debug("fetching breach range", "prefix", prefix)

	resp, err := c.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
		if err != nil {
			return nil, err
		}
		if c.padding {
			req.Header.Set("Add-Padding", "true")
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch range %s: %w", prefix, err)
	}
	defer resp.Body.Close()

	suffixes, err := ParseRange(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse range %s: %w", prefix, err)
	}
	return suffixes, nil
}

// ParseRange parses a range response body of "SUFFIX:COUNT" lines.
// Suffixes are upper-cased. Padding entries with a zero count are kept.
func ParseRange(r io.Reader) (map[string]int, error) {
	suffixes := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		suffix, count, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRange, line)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRange, line)
		}
		suffixes[strings.ToUpper(strings.TrimSpace(suffix))] = n
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return suffixes, nil
}
