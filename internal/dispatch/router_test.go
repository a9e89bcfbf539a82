package dispatch

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/riskscope/internal/analyzer/password"
	"github.com/nao1215/riskscope/internal/analyzer/text"
	"github.com/nao1215/riskscope/internal/analyzer/urlscan"
	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/pipeline"
	"github.com/nao1215/riskscope/internal/transport"
)

type breachFive struct{}

func (breachFive) BreachCount(context.Context, string) (int, error) { return 5, nil }

type recordingObserver struct {
	mu       sync.Mutex
	analyses []string
	routing  []string
}

func (o *recordingObserver) ObserveAnalysis(kind model.Kind, source string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry := string(kind) + "/" + source
	if err != nil {
		entry += "/error"
	}
	o.analyses = append(o.analyses, entry)
}

func (o *recordingObserver) ObserveRoutingError(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routing = append(o.routing, reason)
}

type collectingStep struct {
	mu        sync.Mutex
	decisions []model.Decision
}

func (s *collectingStep) Name() string { return "collect" }

func (s *collectingStep) Do(_ context.Context, o *pipeline.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, o.Decision)
	return nil
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *collectingStep) {
	t.Helper()

	fp, err := password.NewFingerprinter([]byte("router-test"))
	if err != nil {
		t.Fatalf("NewFingerprinter() error = %v", err)
	}
	checker, err := password.New(password.WithFingerprinter(fp), password.WithBreachLookup(breachFive{}))
	if err != nil {
		t.Fatalf("password.New() error = %v", err)
	}

	step := &collectingStep{}
	p := pipeline.New(pipeline.WithContinueOnError(true))
	p.AddStep(step)

	base := []Option{
		WithURLAnalyzer(urlscan.New(nil)),
		WithPasswordChecker(checker),
		WithTextAnalyzer(text.New(nil)),
		WithFingerprinter(fp),
		WithPipeline(p),
		WithIDGenerator(func() string { return "req-fixed" }),
	}
	r, err := NewRouter(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return r, step
}

func TestRouteTaggedScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		data       string
		wantKind   model.Kind
		wantScore  int
		wantAction model.Action
	}{
		{
			name:       "compromised password alerts",
			data:       `{"type":"password","password":"password123"}`,
			wantKind:   model.KindPassword,
			wantScore:  100,
			wantAction: model.ActionAlert,
		},
		{
			name:       "phishing text is logged",
			data:       `{"type":"text","text":"FREE MONEY!!! click here http://bit.ly/x"}`,
			wantKind:   model.KindText,
			wantScore:  51,
			wantAction: model.ActionLog,
		},
		{
			name:       "ip login url alerts on heuristics",
			data:       `{"type":"url","url":"http://192.168.1.1/login"}`,
			wantKind:   model.KindURL,
			wantScore:  50,
			wantAction: model.ActionAlert,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, step := newTestRouter(t)
			outcome, err := r.RouteTagged(context.Background(), []byte(tc.data))
			if err != nil {
				t.Fatalf("RouteTagged() error = %v", err)
			}

			d := outcome.Decision
			if d.Kind != tc.wantKind || d.CombinedScore != tc.wantScore || d.Action != tc.wantAction {
				t.Errorf("decision = %s/%d/%s, want %s/%d/%s",
					d.Kind, d.CombinedScore, d.Action, tc.wantKind, tc.wantScore, tc.wantAction)
			}
			if d.RequestID != "req-fixed" {
				t.Errorf("RequestID = %q", d.RequestID)
			}
			if len(step.decisions) != 1 {
				t.Errorf("pipeline saw %d decisions, want 1", len(step.decisions))
			}
		})
	}
}

func TestRouteInputRefNeverContainsSecret(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	pw, err := r.Route(context.Background(), model.PasswordInput{Password: "password123"})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if !strings.HasPrefix(pw.Decision.InputRef, password.FingerprintPrefix) ||
		strings.Contains(pw.Decision.InputRef, "password123") {
		t.Errorf("password InputRef = %q", pw.Decision.InputRef)
	}

	txt, err := r.Route(context.Background(), model.TextInput{Text: "call me"})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if !strings.HasPrefix(txt.Decision.InputRef, "txt:") || strings.Contains(txt.Decision.InputRef, "call me") {
		t.Errorf("text InputRef = %q", txt.Decision.InputRef)
	}

	again, err := r.Route(context.Background(), model.TextInput{Text: "call me"})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if again.Decision.InputRef != txt.Decision.InputRef {
		t.Error("text InputRef is not stable")
	}
}

func TestRouteUnknownTypeIsNotADecision(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r, step := newTestRouter(t, WithObserver(obs))

	outcome, err := r.RouteTagged(context.Background(), []byte(`{"type":"image","payload":"cat.png"}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("RouteTagged() error = %v, want ErrUnknownType", err)
	}
	if outcome != nil {
		t.Errorf("outcome = %+v, want nil", outcome)
	}
	if len(step.decisions) != 0 {
		t.Error("pipeline ran for an unknown type")
	}
	if len(obs.routing) != 1 || obs.routing[0] != "unknown_type" {
		t.Errorf("routing errors = %v", obs.routing)
	}
}

func TestRouteBlankURLIsInvalidInput(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r, step := newTestRouter(t, WithObserver(obs))

	for _, data := range []string{`{"type":"url","url":""}`, `{"type":"url","url":"   "}`} {
		if _, err := r.RouteTagged(context.Background(), []byte(data)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("RouteTagged(%s) error = %v, want ErrInvalidInput", data, err)
		}
	}
	if len(step.decisions) != 0 || len(obs.analyses) != 0 {
		t.Errorf("blank url reached analysis: decisions %d analyses %v", len(step.decisions), obs.analyses)
	}
	if !slices.Equal(obs.routing, []string{"invalid_input", "invalid_input"}) {
		t.Errorf("routing errors = %v", obs.routing)
	}
}

// cancelingAnalyzer cancels the caller's context once it has produced its
// findings, as a disconnecting HTTP client would.
type cancelingAnalyzer struct{ cancel context.CancelFunc }

func (a cancelingAnalyzer) Analyze(_ context.Context, rawURL string) (model.URLFindings, error) {
	a.cancel()
	return model.URLFindings{URL: rawURL, RiskScore: 80, Source: model.SourceRemote}, nil
}

func TestRouteStepsSurviveCallerCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, step := newTestRouter(t, WithURLAnalyzer(cancelingAnalyzer{cancel: cancel}))
	outcome, err := r.Route(ctx, model.URLInput{URL: "http://example.com/verify"})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("caller context was not cancelled")
	}
	if outcome.TimedOut || len(step.decisions) != 1 {
		t.Errorf("TimedOut = %v, stored decisions = %d", outcome.TimedOut, len(step.decisions))
	}
	if outcome.Decision.Action != model.ActionAlert {
		t.Errorf("action = %s, want alert", outcome.Decision.Action)
	}
}

func TestRouteAnalyzerFailure(t *testing.T) {
	t.Parallel()

	rejected := &transport.StatusError{StatusCode: 401}
	obs := &recordingObserver{}
	r, step := newTestRouter(t,
		WithURLAnalyzer(urlscan.New(failingScanner{err: rejected})),
		WithObserver(obs),
	)

	_, err := r.Route(context.Background(), model.URLInput{URL: "http://example.com"})
	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Route() error = %v, want StatusError", err)
	}
	if len(step.decisions) != 0 {
		t.Error("pipeline ran after a hard analyzer failure")
	}
	if len(obs.analyses) != 1 || !strings.HasSuffix(obs.analyses[0], "/error") {
		t.Errorf("analyses = %v", obs.analyses)
	}
}

type failingScanner struct{ err error }

func (f failingScanner) Scan(context.Context, string) (model.URLFindings, error) {
	return model.URLFindings{}, f.err
}

func TestRouteMissingAnalyzer(t *testing.T) {
	t.Parallel()

	r, err := NewRouter()
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	_, err = r.Route(context.Background(), model.TextInput{Text: "hi"})
	if !errors.Is(err, ErrAnalyzerUnavailable) {
		t.Errorf("Route() error = %v, want ErrAnalyzerUnavailable", err)
	}

	if _, err := r.Route(context.Background(), nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Route(nil) error = %v, want ErrUnknownType", err)
	}
}

func TestRouteAppliesTimeout(t *testing.T) {
	t.Parallel()

	deadline := make(chan time.Duration, 1)
	r, _ := newTestRouter(t,
		WithURLAnalyzer(deadlineProbe(deadline)),
		WithTimeout(2*time.Second),
	)

	if _, err := r.Route(context.Background(), model.URLInput{URL: "http://example.com"}); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if got := <-deadline; got <= 0 || got > 2*time.Second {
		t.Errorf("remaining deadline = %v, want (0, 2s]", got)
	}
}

type deadlineProbe chan time.Duration

func (p deadlineProbe) Analyze(ctx context.Context, rawURL string) (model.URLFindings, error) {
	d, ok := ctx.Deadline()
	if !ok {
		p <- 0
	} else {
		p <- time.Until(d)
	}
	return model.URLFindings{URL: rawURL, Source: model.SourceHeuristic}, nil
}
