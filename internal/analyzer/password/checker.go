package password

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

// Scoring constants.
const (
	// UnknownBreachScore is the conservative score used when the breach
	// status could not be determined.
	UnknownBreachScore = 70

	// CommonPasswordFloor is the minimum score of a common password.
	CommonPasswordFloor = 85

	// FullEntropyBits is the entropy at which a clean password scores 0.
	FullEntropyBits = 80.0

	// BreachUnknown is the breach count reported when the status is unknown.
	BreachUnknown = -1
)

// Checker is the password risk analyzer.
// It is safe for concurrent use; the loaded sets are never mutated after
// construction.
type Checker struct {
	common   Set
	breached Set
	lookup   BreachLookup
	fp       *Fingerprinter
	scorer   StrengthScorer
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithCommonPasswords sets the common-password list. Entries must be case
// folded, as LoadCommonPasswords does.
func WithCommonPasswords(set Set) Option {
	return func(c *Checker) {
		c.common = set
	}
}

// WithBreachedHashes sets the local list of breached upper-case SHA-1 digests.
func WithBreachedHashes(set Set) Option {
	return func(c *Checker) {
		c.breached = set
	}
}

// WithBreachLookup enables the remote breach lookup. When set, its result
// takes precedence over the local breached list.
func WithBreachLookup(lookup BreachLookup) Option {
	return func(c *Checker) {
		c.lookup = lookup
	}
}

// WithFingerprinter sets the fingerprinter used for references.
func WithFingerprinter(fp *Fingerprinter) Option {
	return func(c *Checker) {
		c.fp = fp
	}
}

// WithStrengthScorer attaches a supplementary strength scorer.
func WithStrengthScorer(s StrengthScorer) Option {
	return func(c *Checker) {
		c.scorer = s
	}
}

// WithTimeout bounds the remote breach lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker. Without options it runs local-only with empty lists
// and a random per-process fingerprint key.
func New(opts ...Option) (*Checker, error) {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}

	if c.common == nil {
		c.common = Set{}
	}
	if c.breached == nil {
		c.breached = Set{}
	}
	if c.fp == nil {
		fp, err := NewFingerprinter(nil)
		if err != nil {
			return nil, err
		}
		c.fp = fp
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Remote reports whether a remote breach lookup is configured.
func (c *Checker) Remote() bool {
	return c.lookup != nil
}

// Ref returns the fingerprint reference for password.
func (c *Checker) Ref(password string) string {
	return c.fp.Ref(password)
}

// Check assesses password and returns its findings. It never fails: a
// remote lookup error or timeout yields an unknown breach status, which is
// scored conservatively.
func (c *Checker) Check(ctx context.Context, password string) model.PasswordFindings {
	digest := SHA1Hex(password)
	fingerprint := c.fp.Fingerprint(password)

	common := c.common.Has(heuristic.Fold(password))
	bits := heuristic.EntropyBits(password)

	count, source := c.breachCount(ctx, digest, fingerprint)

	f := model.PasswordFindings{
		EntropyBits:  math.Round(bits*100) / 100,
		BreachCount:  count,
		BreachSource: source,
		IsCommon:     common,
		Strength:     heuristic.StrengthFor(bits, common),
		Fingerprint:  fingerprint,
	}
	f.Compromised, f.RiskScore = Score(count, bits, common)

	if c.scorer != nil {
		s := c.scorer.Strength(password)
		f.Supplementary = &s
	}

	c.logger.Debug("password checked",
		"input_ref", FingerprintPrefix+fingerprint,
		"breach_count", f.BreachCount,
		"breach_source", f.BreachSource,
		"risk_score", f.RiskScore,
	)
	return f
}

// breachCount resolves the breach count.
// A successful remote lookup wins, including a clean 0 over a local hit.
// A failed remote lookup reports BreachUnknown. Without a remote lookup the
// local list decides.
func (c *Checker) breachCount(ctx context.Context, digest, fingerprint string) (int, string) {
	if c.lookup == nil {
		if c.breached.Has(digest) {
			return 1, model.SourceLocal
		}
		return 0, model.SourceLocal
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	count, err := c.lookup.BreachCount(ctx, digest)
	if err != nil {
		c.logger.Warn("breach lookup failed, status unknown",
			"input_ref", FingerprintPrefix+fingerprint,
			"error", err,
		)
		return BreachUnknown, model.SourceUnknown
	}
	return count, model.SourceRemote
}

// Score derives the compromise flag and risk score from a breach count and
// entropy estimate. Compromised is nil when count is BreachUnknown.
func Score(count int, bits float64, common bool) (*bool, int) {
	switch {
	case count > 0:
		return model.BoolPtr(true), heuristic.MaxScore
	case count == 0:
		score := heuristic.RoundScore(100 - bits/FullEntropyBits*100)
		if common {
			score = max(score, CommonPasswordFloor)
		}
		return model.BoolPtr(false), score
	default:
		return nil, UnknownBreachScore
	}
}
