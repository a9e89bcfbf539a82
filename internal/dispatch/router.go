package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/riskscope/internal/analyzer/password"
	"github.com/nao1215/riskscope/internal/decision"
	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/pipeline"
)

// DefaultTimeout bounds one analyzer call.
const DefaultTimeout = 30 * time.Second

// DefaultStepTimeout bounds the post-decision steps of one input.
const DefaultStepTimeout = 15 * time.Second

// textRefPrefix marks text fingerprints in input references.
const textRefPrefix = "txt:"

// URLAnalyzer analyzes URLs.
type URLAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) (model.URLFindings, error)
}

// PasswordChecker analyzes passwords. It never fails.
type PasswordChecker interface {
	Check(ctx context.Context, password string) model.PasswordFindings
}

// TextAnalyzer classifies free text. It never fails.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) model.TextFindings
}

// AnalysisObserver records analyzer latency and results.
type AnalysisObserver interface {
	ObserveAnalysis(kind model.Kind, source string, elapsed time.Duration, err error)
	ObserveRoutingError(reason string)
}

// Router routes inputs to analyzers and decisions to the pipeline.
// It is safe for concurrent use as long as its analyzers are.
type Router struct {
	urls      URLAnalyzer
	passwords PasswordChecker
	texts     TextAnalyzer

	fp       *password.Fingerprinter
	pipeline *pipeline.Pipeline
	observer AnalysisObserver
	logger   *slog.Logger
	newID    func() string

	timeout time.Duration

	// stepTimeout bounds the pipeline, which outlives the caller's context.
	stepTimeout time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithURLAnalyzer sets the URL analyzer.
func WithURLAnalyzer(a URLAnalyzer) Option {
	return func(r *Router) {
		r.urls = a
	}
}

// WithPasswordChecker sets the password analyzer.
func WithPasswordChecker(c PasswordChecker) Option {
	return func(r *Router) {
		r.passwords = c
	}
}

// WithTextAnalyzer sets the text analyzer.
func WithTextAnalyzer(a TextAnalyzer) Option {
	return func(r *Router) {
		r.texts = a
	}
}

// WithFingerprinter sets the fingerprinter used for text input references.
// It should share its key with the password checker so that all references
// are stable across restarts.
func WithFingerprinter(fp *password.Fingerprinter) Option {
	return func(r *Router) {
		r.fp = fp
	}
}

// WithPipeline sets the post-decision pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Router) {
		r.pipeline = p
	}
}

// WithObserver sets the analysis metrics observer.
func WithObserver(o AnalysisObserver) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// WithTimeout bounds each analyzer call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithStepTimeout bounds the post-decision steps. Non-positive values keep
// the default.
func WithStepTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.stepTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithIDGenerator overrides request id generation.
func WithIDGenerator(newID func() string) Option {
	return func(r *Router) {
		r.newID = newID
	}
}

// NewRouter creates a Router. Kinds without an analyzer fail with
// ErrAnalyzerUnavailable.
func NewRouter(opts ...Option) (*Router, error) {
	r := &Router{
		timeout:     DefaultTimeout,
		stepTimeout: DefaultStepTimeout,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.pipeline == nil {
		r.pipeline = pipeline.New(pipeline.WithLogger(r.logger))
	}
	if r.fp == nil {
		fp, err := password.NewFingerprinter(nil)
		if err != nil {
			return nil, err
		}
		r.fp = fp
	}
	return r, nil
}

// RouteTagged parses a tagged input and routes it.
func (r *Router) RouteTagged(ctx context.Context, data []byte) (*pipeline.Outcome, error) {
	in, err := ParseTaggedInput(data)
	if err != nil {
		r.routingError(err)
		return nil, err
	}
	return r.Route(ctx, in)
}

// Route analyzes in, decides and runs the post-decision pipeline.
//
// The analyzer call is bounded by the router timeout. Once a Decision
// exists the steps run detached from ctx cancellation, bounded by the step
// timeout, so a caller that goes away does not lose the stored event.
// Post-decision step failures are recorded in the Outcome and do not fail
// the call. An error is returned only when no Decision could be made.
func (r *Router) Route(ctx context.Context, in model.Input) (*pipeline.Outcome, error) {
	if in == nil {
		err := &UnknownTypeError{Type: "<nil>"}
		r.routingError(err)
		return nil, err
	}

	start := time.Now()
	requestID := r.newID()
	logger := r.logger.With("request_id", requestID)

	findings, err := r.Analyze(ctx, in)
	if err != nil {
		logger.Warn("analysis failed", "kind", in.Kind(), "error", err)
		return nil, err
	}

	d, err := decision.Decide(in.Kind(), findings)
	if err != nil {
		r.routingError(err)
		return nil, fmt.Errorf("failed to decide: %w", err)
	}
	d.RequestID = requestID
	d.InputRef = r.inputRef(in, findings)

	logger.Info("decision made",
		"kind", d.Kind,
		"input_ref", d.InputRef,
		"score", d.CombinedScore,
		"action", d.Action,
	)

	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.stepTimeout)
	defer cancel()

	outcome := pipeline.NewOutcome(d)
	if err := r.pipeline.Execute(stepCtx, outcome); err != nil {
		logger.Warn("post-decision pipeline stopped", "error", err)
	}
	outcome.Elapsed = time.Since(start)
	return outcome, nil
}

// Analyze runs the analyzer for in under the router timeout and returns its
// findings without deciding.
func (r *Router) Analyze(ctx context.Context, in model.Input) (model.Findings, error) {
	if in == nil {
		return nil, &UnknownTypeError{Type: "<nil>"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var (
		findings model.Findings
		source   string
		err      error
	)

	switch v := in.(type) {
	case model.URLInput:
		if r.urls == nil {
			err = fmt.Errorf("%w: %s", ErrAnalyzerUnavailable, model.KindURL)
			break
		}
		var f model.URLFindings
		f, err = r.urls.Analyze(ctx, v.URL)
		findings, source = f, f.Source
	case model.PasswordInput:
		if r.passwords == nil {
			err = fmt.Errorf("%w: %s", ErrAnalyzerUnavailable, model.KindPassword)
			break
		}
		f := r.passwords.Check(ctx, v.Password)
		findings, source = f, f.BreachSource
	case model.TextInput:
		if r.texts == nil {
			err = fmt.Errorf("%w: %s", ErrAnalyzerUnavailable, model.KindText)
			break
		}
		f := r.texts.Analyze(ctx, v.Text)
		findings, source = f, f.Source
	default:
		err = &UnknownTypeError{Type: fmt.Sprintf("%T", in)}
	}

	if r.observer != nil {
		if errors.Is(err, ErrUnknownType) {
			r.observer.ObserveRoutingError("unknown_type")
		} else {
			r.observer.ObserveAnalysis(in.Kind(), source, time.Since(start), err)
		}
	}
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// inputRef identifies the input in stored decisions. Secrets and free text
// are referenced by keyed fingerprint only.
func (r *Router) inputRef(in model.Input, findings model.Findings) string {
	switch v := in.(type) {
	case model.URLInput:
		return v.URL
	case model.PasswordInput:
		if f, ok := findings.(model.PasswordFindings); ok && f.Fingerprint != "" {
			return password.FingerprintPrefix + f.Fingerprint
		}
		return r.fp.Ref(v.Password)
	case model.TextInput:
		return textRefPrefix + r.fp.Fingerprint(v.Text)
	default:
		return ""
	}
}

func (r *Router) routingError(err error) {
	if r.observer == nil {
		return
	}
	switch {
	case errors.Is(err, ErrUnknownType):
		r.observer.ObserveRoutingError("unknown_type")
	case errors.Is(err, ErrMissingPayload):
		r.observer.ObserveRoutingError("missing_payload")
	case errors.Is(err, ErrInvalidInput):
		r.observer.ObserveRoutingError("invalid_input")
	default:
		r.observer.ObserveRoutingError("decision")
	}
}
