package text

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/riskscope/internal/model"
)

type stubClassifier struct {
	verdict Verdict
	err     error
}

func (s stubClassifier) Classify(context.Context, string) (Verdict, error) {
	return s.verdict, s.err
}

type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, _ string) (Verdict, error) {
	<-ctx.Done()
	return Verdict{}, ctx.Err()
}

const freeMoney = "FREE MONEY!!! click here http://bit.ly/x"

func TestAnalyzeHeuristicOnly(t *testing.T) {
	t.Parallel()

	f := New(nil).Analyze(context.Background(), freeMoney)

	if f.HeuristicScore != 51 || f.RiskScore != 51 {
		t.Errorf("scores = %d/%d, want 51/51", f.HeuristicScore, f.RiskScore)
	}
	if f.Label != model.LabelSuspicious {
		t.Errorf("Label = %s, want suspicious", f.Label)
	}
	if !slices.Equal(f.URLs, []string{"http://bit.ly/x"}) {
		t.Errorf("URLs = %v", f.URLs)
	}
	if f.Source != model.SourceHeuristic || f.Degraded {
		t.Errorf("Source = %s Degraded = %v", f.Source, f.Degraded)
	}
	want := "found 1 url(s); phrases: click here; 3 exclamation mark(s)"
	if f.Reason != want {
		t.Errorf("Reason = %q, want %q", f.Reason, want)
	}
}

func TestAnalyzeClassifierResult(t *testing.T) {
	t.Parallel()

	a := New(stubClassifier{verdict: Verdict{Label: model.LabelMalicious, Score: 88, Reason: "scam"}})
	f := a.Analyze(context.Background(), freeMoney)

	if f.Label != model.LabelMalicious || f.RiskScore != 88 || f.Reason != "scam" {
		t.Errorf("findings = %+v", f)
	}
	if f.Source != model.SourceLLM {
		t.Errorf("Source = %s, want llm", f.Source)
	}
	if f.HeuristicScore != 51 || len(f.URLs) != 1 {
		t.Errorf("heuristic context missing: score=%d urls=%v", f.HeuristicScore, f.URLs)
	}
}

func TestAnalyzeClassifierOutOfRange(t *testing.T) {
	t.Parallel()

	a := New(stubClassifier{verdict: Verdict{Label: "weird", Score: -5}})
	f := a.Analyze(context.Background(), "hello")

	if f.RiskScore != 0 || f.Label != model.LabelBenign {
		t.Errorf("findings = %+v, want clamped benign", f)
	}
}

func TestAnalyzeClassifierFailureDegrades(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a    *Analyzer
	}{
		{"error", New(stubClassifier{err: errors.New("boom")})},
		{"timeout", New(slowClassifier{}, WithTimeout(10*time.Millisecond))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := tc.a.Analyze(context.Background(), freeMoney)
			if !f.Degraded || f.Source != model.SourceHeuristic {
				t.Errorf("Degraded = %v Source = %s", f.Degraded, f.Source)
			}
			if f.RiskScore != 51 || f.Label != model.LabelSuspicious {
				t.Errorf("findings = %+v", f)
			}
		})
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	t.Parallel()

	a := New(stubClassifier{err: errors.New("must not be called")})
	for _, in := range []string{"", "   \n\t"} {
		f := a.Analyze(context.Background(), in)
		if f.Label != model.LabelBenign || f.RiskScore != 0 || f.HeuristicScore != 0 {
			t.Errorf("Analyze(%q) = %+v", in, f)
		}
		if f.Reason != "empty input" || f.Source != model.SourceNone || f.Degraded {
			t.Errorf("Analyze(%q) = %+v", in, f)
		}
		if f.URLs == nil || len(f.URLs) != 0 {
			t.Errorf("URLs = %v, want empty", f.URLs)
		}
	}
}

func TestHeuristicClassifierBenign(t *testing.T) {
	t.Parallel()

	v, err := HeuristicClassifier{}.Classify(context.Background(), "see you at lunch")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if v.Label != model.LabelBenign || v.Score != 0 || v.Reason != "heuristic analysis" {
		t.Errorf("Classify() = %+v", v)
	}
}
