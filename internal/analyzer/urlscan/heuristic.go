package urlscan

import (
	"context"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

// Heuristic is the local Scanner. It never performs I/O and never fails
// for a non-empty URL.
type Heuristic struct{}

// Scan implements Scanner.
func (Heuristic) Scan(_ context.Context, rawURL string) (model.URLFindings, error) {
	signals := heuristic.ScoreURL(rawURL)
	return model.URLFindings{
		URL:       rawURL,
		RiskScore: signals.Score,
		Source:    model.SourceHeuristic,
		Signals:   signals.Signals,
	}, nil
}
