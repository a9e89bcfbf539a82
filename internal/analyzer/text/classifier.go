package text

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

// Verdict is a classification of a piece of text.
type Verdict struct {
	Label  model.Label
	Score  int
	Reason string
}

// Classifier labels a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// HeuristicClassifier classifies text with the local keyword heuristic.
// It never fails.
type HeuristicClassifier struct{}

// Classify implements Classifier.
func (HeuristicClassifier) Classify(_ context.Context, text string) (Verdict, error) {
	return heuristicVerdict(heuristic.ScoreText(text)), nil
}

func heuristicVerdict(s heuristic.TextSignals) Verdict {
	var parts []string
	if len(s.URLs) > 0 {
		parts = append(parts, fmt.Sprintf("found %d url(s)", len(s.URLs)))
	}
	if len(s.Phrases) > 0 {
		parts = append(parts, "phrases: "+strings.Join(s.Phrases, ", "))
	}
	if len(s.Topics) > 0 {
		parts = append(parts, "topics: "+strings.Join(s.Topics, ", "))
	}
	if s.Exclamations > 0 {
		parts = append(parts, fmt.Sprintf("%d exclamation mark(s)", s.Exclamations))
	}

	reason := "heuristic analysis"
	if len(parts) > 0 {
		reason = strings.Join(parts, "; ")
	}

	return Verdict{
		Label:  heuristic.LabelForHeuristic(s.Score),
		Score:  s.Score,
		Reason: reason,
	}
}
