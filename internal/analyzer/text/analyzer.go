package text

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

// Analyzer is the text classification analyzer.
type Analyzer struct {
	classifier Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeout bounds the classifier call.
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

// New creates an Analyzer. A nil classifier selects heuristic-only mode.
func New(classifier Classifier, opts ...Option) *Analyzer {
	a := &Analyzer{classifier: classifier}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Remote reports whether a language model classifier is configured.
func (a *Analyzer) Remote() bool {
	return a.classifier != nil
}

// Analyze classifies text. It never fails: classifier errors fall back to
// the heuristic and set Degraded.
func (a *Analyzer) Analyze(ctx context.Context, text string) model.TextFindings {
	if strings.TrimSpace(text) == "" {
		return model.TextFindings{
			Label:  model.LabelBenign,
			Reason: "empty input",
			URLs:   []string{},
			Source: model.SourceNone,
		}
	}

	signals := heuristic.ScoreText(text)
	findings := model.TextFindings{
		URLs:           signals.URLs,
		HeuristicScore: signals.Score,
	}

	if a.classifier != nil {
		v, err := a.classify(ctx, text)
		if err == nil {
			findings.RiskScore = heuristic.ClampScore(v.Score)
			findings.Label = v.Label
			if _, ok := model.ParseLabel(string(v.Label)); !ok {
				findings.Label = heuristic.LabelForScore(findings.RiskScore)
			}
			findings.Reason = v.Reason
			findings.Source = model.SourceLLM
			return findings
		}
		a.logger.Warn("text classifier failed, using heuristic", "error", err)
		findings.Degraded = true
	}

	v := heuristicVerdict(signals)
	findings.Label = v.Label
	findings.Reason = v.Reason
	findings.RiskScore = v.Score
	findings.Source = model.SourceHeuristic
	return findings
}

func (a *Analyzer) classify(ctx context.Context, text string) (Verdict, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.classifier.Classify(ctx, text)
}
