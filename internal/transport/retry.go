package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry policy.
const (
	// DefaultInitialBackoff is the first wait after a failed attempt.
	DefaultInitialBackoff = 1 * time.Second

	// DefaultMaxBackoff caps the doubling schedule.
	DefaultMaxBackoff = 16 * time.Second

	// DefaultMaxRateLimitRetries is how many HTTP 429 responses are retried.
	DefaultMaxRateLimitRetries = 6

	// DefaultMaxTransientRetries is how many network errors and 5xx
	// responses are retried.
	DefaultMaxTransientRetries = 5

	// errorBodyLimit bounds how much of a failed response body is kept.
	errorBodyLimit = 512
)

// Retry reasons passed to the retry hook.
const (
	ReasonRateLimited = "rate_limited"
	ReasonTransient   = "transient"
)

// RequestFunc builds a fresh request for every attempt.
// Bodies must be recreated on each call since a sent body is consumed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Retrier executes HTTP requests with bounded exponential backoff.
//
// The schedule starts at InitialBackoff and doubles up to MaxBackoff.
// HTTP 429 responses honor a Retry-After header when present and count
// against the rate-limit budget. Network errors and 5xx responses count
// against the transient budget. Any other 4xx response is returned at once.
// The caller's context bounds the whole loop including sleeps.
type Retrier struct {
	client *http.Client
	logger *slog.Logger

	initialBackoff      time.Duration
	maxBackoff          time.Duration
	maxRateLimitRetries int
	maxTransientRetries int

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	// onRetry is called before every retry sleep with the retry reason.
	onRetry func(reason string)
}

// RetryOption configures a Retrier.
type RetryOption func(*Retrier)

// WithRetryLogger sets the logger used for retry diagnostics.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// WithBackoff overrides the initial and maximum backoff durations.
// Non-positive values keep the defaults.
func WithBackoff(initial, maximum time.Duration) RetryOption {
	return func(r *Retrier) {
		if initial > 0 {
			r.initialBackoff = initial
		}
		if maximum > 0 {
			r.maxBackoff = maximum
		}
	}
}

// WithRetryBudgets overrides the rate-limit and transient retry budgets.
// Negative values keep the defaults; zero disables retries of that kind.
func WithRetryBudgets(rateLimit, transient int) RetryOption {
	return func(r *Retrier) {
		if rateLimit >= 0 {
			r.maxRateLimitRetries = rateLimit
		}
		if transient >= 0 {
			r.maxTransientRetries = transient
		}
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrier) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithRetryHook registers a callback invoked on every retry, for metrics.
func WithRetryHook(hook func(reason string)) RetryOption {
	return func(r *Retrier) {
		r.onRetry = hook
	}
}

// NewRetrier creates a Retrier around client.
// A nil client means http.DefaultClient.
func NewRetrier(client *http.Client, opts ...RetryOption) *Retrier {
	if client == nil {
		client = http.DefaultClient
	}

	r := &Retrier{
		client:              client,
		initialBackoff:      DefaultInitialBackoff,
		maxBackoff:          DefaultMaxBackoff,
		maxRateLimitRetries: DefaultMaxRateLimitRetries,
		maxTransientRetries: DefaultMaxTransientRetries,
		sleep:               sleepContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Client returns the underlying HTTP client.
func (r *Retrier) Client() *http.Client {
	return r.client
}

// Do executes the request built by build until it succeeds or the policy gives up.
// On success the caller owns the response body.
func (r *Retrier) Do(ctx context.Context, build RequestFunc) (*http.Response, error) {
	schedule := r.newSchedule()
	rateLimited, transient := 0, 0

	for {
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := r.client.Do(req)
		wait := schedule.NextBackOff()

		var reason string
		var lastErr error

		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			transient++
			if transient > r.maxTransientRetries {
				return nil, fmt.Errorf("%w after %d transient retries: %w", ErrRetriesExhausted, r.maxTransientRetries, err)
			}
			reason, lastErr = ReasonTransient, err

		case resp.StatusCode == http.StatusTooManyRequests:
			statusErr := drainStatusError(resp)
			rateLimited++
			if rateLimited > r.maxRateLimitRetries {
				return nil, fmt.Errorf("%w after %d rate-limit retries: %w", ErrRetriesExhausted, r.maxRateLimitRetries, statusErr)
			}
			if after, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				wait = after
			}
			reason, lastErr = ReasonRateLimited, statusErr

		case resp.StatusCode >= http.StatusInternalServerError:
			statusErr := drainStatusError(resp)
			transient++
			if transient > r.maxTransientRetries {
				return nil, fmt.Errorf("%w after %d transient retries: %w", ErrRetriesExhausted, r.maxTransientRetries, statusErr)
			}
			reason, lastErr = ReasonTransient, statusErr

		case resp.StatusCode >= http.StatusBadRequest:
			return nil, drainStatusError(resp)

		default:
			return resp, nil
		}

		r.logger.Debug("retrying request",
			"url", req.URL.Redacted(),
			"reason", reason,
			"wait", wait,
			"error", lastErr,
		)
		if r.onRetry != nil {
			r.onRetry(reason)
		}

		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// newSchedule returns a deterministic doubling schedule capped at maxBackoff.
func (r *Retrier) newSchedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialBackoff
	b.MaxInterval = r.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// drainStatusError reads a bounded part of the body, closes it and
// returns the corresponding StatusError.
func drainStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit)) //nolint:errcheck // body is diagnostic only
	_, _ = io.Copy(io.Discard, resp.Body)                          //nolint:errcheck // drain for connection reuse

	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// parseRetryAfter parses a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}

	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
