package report

import (
	"fmt"
	"io"
	"strings"
)

// defaultRecentRows is how many recent events the text report lists.
const defaultRecentRows = 10

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and is easy to pipe to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// recentRows caps the recent events section. 0 hides it.
	recentRows int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithRecentRows sets how many recent events are listed.
func WithRecentRows(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n >= 0 {
			w.recentRows = n
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		recentRows: defaultRecentRows,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)
	w.writeTop(&sb, report)
	w.writeRecent(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         RISKSCOPE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Generated:      %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Total events:   %d\n", report.Summary.TotalEvents)
	fmt.Fprintf(sb, "Average score:  %.2f\n\n", report.Summary.AvgRiskScore)
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *Report) {
	sb.WriteString("Actions\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	for _, a := range actionOrder {
		fmt.Fprintf(sb, "  %-12s %d\n", a, report.ActionCount(a))
	}
	sb.WriteString("\n")

	if len(report.Summary.KindCounts) > 0 {
		sb.WriteString("Inputs by kind\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")
		for _, k := range sortedKeys(report.Summary.KindCounts) {
			fmt.Fprintf(sb, "  %-12s %d\n", k, report.Summary.KindCounts[k])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Password strength\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	for _, s := range strengthOrder {
		fmt.Fprintf(sb, "  %-12s %d\n", s, report.Summary.PasswordStrength[s])
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTop(sb *strings.Builder, report *Report) {
	if len(report.Summary.TopDomains) > 0 {
		sb.WriteString("Flagged domains\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")
		for _, c := range report.Summary.TopDomains {
			fmt.Fprintf(sb, "  %4d  %s\n", c.Count, c.Value)
		}
		sb.WriteString("\n")
	}
	if len(report.Summary.TopURLs) > 0 {
		sb.WriteString("Top URLs\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")
		for _, c := range report.Summary.TopURLs {
			fmt.Fprintf(sb, "  %4d  %s\n", c.Count, truncateString(c.Value, 60))
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeRecent(sb *strings.Builder, report *Report) {
	if w.recentRows == 0 {
		return
	}
	sb.WriteString("Recent events\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	if len(report.Recent) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for i, e := range report.Recent {
		if i == w.recentRows {
			break
		}
		fmt.Fprintf(sb, "  %s  %-8s %3d  %-6s %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Kind, e.Score, e.Action, truncateString(e.InputRef, 50))
	}
}
