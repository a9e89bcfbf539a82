package urlscan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/transport"
)

// Scanner produces URL findings for a single URL.
type Scanner interface {
	Scan(ctx context.Context, rawURL string) (model.URLFindings, error)
}

// Analyzer is the URL reputation analyzer.
// It is safe for concurrent use as long as its scanners are.
type Analyzer struct {
	primary  Scanner
	fallback Scanner
	timeout  time.Duration
	logger   *slog.Logger
	remote   bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeout bounds every Analyze call, including retries and polls.
// Zero means the caller's context is the only bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer. A nil primary selects heuristic-only mode.
func New(primary Scanner, opts ...Option) *Analyzer {
	a := &Analyzer{
		primary:  primary,
		fallback: Heuristic{},
		remote:   primary != nil,
	}
	if a.primary == nil {
		a.primary = a.fallback
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Remote reports whether a remote scanning service is configured.
func (a *Analyzer) Remote() bool {
	return a.remote
}

// Analyze returns findings for rawURL.
//
// Non-retryable client errors from the scanning service (for example a
// rejected API key) are returned as errors. Every other failure, including
// exhausted retries and the deadline expiring, degrades to the local
// heuristic so that the caller always gets a score.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (model.URLFindings, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.URLFindings{}, ErrEmptyURL
	}

	scanCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	findings, err := a.primary.Scan(scanCtx, rawURL)
	if err == nil {
		findings.RiskScore = heuristic.ClampScore(findings.RiskScore)
		a.logger.Debug("url scanned",
			"url", rawURL,
			"source", findings.Source,
			"total_votes", findings.TotalVotes(),
			"risk_score", findings.RiskScore,
		)
		return findings, nil
	}

	if transport.IsClientError(err) {
		if transport.IsAuthError(err) {
			a.logger.Error("url scanning service rejected the configured credentials", "error", err)
		}
		return model.URLFindings{}, err
	}

	a.logger.Warn("url scan failed, falling back to local heuristics",
		"url", rawURL,
		"error", err,
	)

	// The heuristic does no I/O, so the expired scan deadline does not matter.
	findings, _ = a.fallback.Scan(ctx, rawURL) //nolint:errcheck // Heuristic never fails
	findings.Degraded = true
	findings.Partial = true
	return findings, nil
}
