package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a report of aggregated statistics and recent decisions",
		Long: `Report renders the memory summary and the most recent decisions as a
human-readable text report (default), JSON (--json) or Markdown with an
action distribution pie chart (--markdown).

Examples:
  riskscope report
  riskscope report --markdown -o reports/weekly.md
  riskscope report --json --recent 30`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report")
	cmd.Flags().StringP("output", "o", "", "Write report to the given file (creates directories if needed)")
	cmd.Flags().IntP("recent", "r", 10, "Number of recent decisions included")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	recent, err := cmd.Flags().GetInt("recent")
	if err != nil {
		return err
	}

	store, err := openMemory(cmd)
	if err != nil {
		return err
	}
	r := report.New(getVersion(), store.Summary(), store.Recent(recent), time.Now())

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := createReportFile(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var writer report.Writer
	switch {
	case asJSON:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	case asMarkdown:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithRecentRows(recent))
	}
	if _, err := writer.Write(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
	}
	return nil
}

// createReportFile creates path with owner-only permissions. Reports list
// input references, so they are not world readable.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path is given by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
