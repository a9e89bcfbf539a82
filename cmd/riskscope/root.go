package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for riskscope.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riskscope",
		Short: "Risk scoring for URLs, passwords and text",
		Long: `riskscope analyzes URLs, passwords and free text for security risk.

URLs are checked against a multi-engine scanning service, passwords against
breach corpora and strength estimates, and texts by a language model or local
heuristics. Every result becomes a decision (alert, log or ignore) that is
stored, aggregated and optionally forwarded to webhook, Slack, email or Kafka.

Without API keys every analyzer falls back to local heuristics.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default .riskscope.yaml, then the XDG config dir)")
	flags.BoolP("verbose", "v", false, "log at debug level")
	flags.Bool("log-json", false, "write logs as JSON")

	cmd.AddCommand(
		NewServeCmd(),
		NewAnalyzeCmd(),
		NewRouteCmd(),
		NewEventsCmd(),
		NewMemoryCmd(),
		NewReportCmd(),
		NewInitCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs riskscope and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "riskscope: %v\n", err)
		os.Exit(1)
	}
}
