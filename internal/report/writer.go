package report

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/nao1215/riskscope/internal/memory"
)

// Report is everything a writer renders.
type Report struct {
	// Version is the riskscope version that generated this report.
	Version string `json:"version"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Summary holds the long-term statistics.
	Summary memory.Summary `json:"summary"`

	// Recent lists the short-term entries, newest first.
	Recent []memory.Entry `json:"recent"`
}

// New builds a Report.
func New(version string, summary memory.Summary, recent []memory.Entry, now time.Time) *Report {
	if recent == nil {
		recent = []memory.Entry{}
	}
	return &Report{
		Version:     version,
		GeneratedAt: now.UTC(),
		Summary:     summary,
		Recent:      recent,
	}
}

// ActionCount returns how many events ended with action.
func (r *Report) ActionCount(action string) int {
	return r.Summary.ActionCounts[action]
}

// Writer renders a Report. The JSON, Markdown and Simple writers implement
// it; the report command picks one by flag.
type Writer interface {
	Write(report *Report) (int, error)
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedKeys returns the keys of m in a stable order.
func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

// strengthOrder lists password strength labels from weakest to strongest.
var strengthOrder = []string{"very_weak", "weak", "reasonable", "strong"}

// actionOrder lists actions from most to least severe.
var actionOrder = []string{"alert", "log", "ignore"}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
