package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives type-safe tables, GitHub flavored alerts and
// mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeActions(md, report)
	w.writeCounts(md, report)
	w.writeTop(md, report)
	w.writeRecent(md, report)
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("riskscope Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Events", strconv.Itoa(report.Summary.TotalEvents)},
			{"Average Risk Score", strconv.FormatFloat(report.Summary.AvgRiskScore, 'f', 2, 64)},
		},
	})
	md.PlainText("")
}

// writeActions writes the action table, the pie chart and an alert.
func (w *MarkdownWriter) writeActions(md *markdown.Markdown, report *Report) {
	md.H2("Action Distribution")
	md.PlainText("")

	labels := map[string]string{"alert": "🔴 Alert", "log": "🟡 Log", "ignore": "⚪ Ignore"}
	rows := make([][]string, 0, len(actionOrder))
	for _, a := range actionOrder {
		rows = append(rows, []string{labels[a], strconv.Itoa(report.ActionCount(a))})
	}
	md.Table(markdown.TableSet{Header: []string{"Action", "Count"}, Rows: rows})
	md.PlainText("")

	if report.Summary.TotalEvents > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Action Distribution"),
			piechart.WithShowData(true),
		)
		for _, a := range actionOrder {
			if n := report.ActionCount(a); n > 0 {
				chart.LabelAndIntValue(a, uint64(n)) //nolint:gosec // counts are never negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.ActionCount("alert") > 0:
		md.Cautionf("%d event(s) raised an alert.", report.ActionCount("alert"))
	case report.ActionCount("log") > 0:
		md.Importantf("%d event(s) were logged for review.", report.ActionCount("log"))
	case report.Summary.TotalEvents > 0:
		md.Tip("No risky inputs recorded.")
	default:
		md.Note("No events recorded yet.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, report *Report) {
	if len(report.Summary.KindCounts) > 0 {
		md.H2("Inputs by Kind")
		md.PlainText("")
		rows := [][]string{}
		for _, k := range sortedKeys(report.Summary.KindCounts) {
			rows = append(rows, []string{k, strconv.Itoa(report.Summary.KindCounts[k])})
		}
		md.Table(markdown.TableSet{Header: []string{"Kind", "Count"}, Rows: rows})
		md.PlainText("")
	}

	md.H2("Password Strength")
	md.PlainText("")
	rows := make([][]string, 0, len(strengthOrder))
	for _, s := range strengthOrder {
		rows = append(rows, []string{s, strconv.Itoa(report.Summary.PasswordStrength[s])})
	}
	md.Table(markdown.TableSet{Header: []string{"Strength", "Count"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTop(md *markdown.Markdown, report *Report) {
	if len(report.Summary.TopDomains) > 0 {
		md.H2("Flagged Domains")
		md.PlainText("")
		rows := make([][]string, 0, len(report.Summary.TopDomains))
		for _, c := range report.Summary.TopDomains {
			rows = append(rows, []string{"`" + c.Value + "`", strconv.Itoa(c.Count)})
		}
		md.Table(markdown.TableSet{Header: []string{"Domain", "Count"}, Rows: rows})
		md.PlainText("")
	}

	if len(report.Summary.TopURLs) > 0 {
		md.H2("Top URLs")
		md.PlainText("")
		rows := make([][]string, 0, len(report.Summary.TopURLs))
		for _, c := range report.Summary.TopURLs {
			rows = append(rows, []string{"`" + truncateString(c.Value, 60) + "`", strconv.Itoa(c.Count)})
		}
		md.Table(markdown.TableSet{Header: []string{"URL", "Count"}, Rows: rows})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeRecent(md *markdown.Markdown, report *Report) {
	md.H2("Recent Events")
	md.PlainText("")
	if len(report.Recent) == 0 {
		md.PlainText("No recent events.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Recent))
	for _, e := range report.Recent {
		rows = append(rows, []string{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			string(e.Kind),
			strconv.Itoa(e.Score),
			e.Action.String(),
			"`" + truncateString(e.InputRef, 50) + "`",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Time (UTC)", "Kind", "Score", "Action", "Input"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *Report) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [riskscope %s](https://github.com/nao1215/riskscope)*", report.Version)
}
