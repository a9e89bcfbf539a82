package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/dispatch"
	"github.com/nao1215/riskscope/internal/model"
	"github.com/nao1215/riskscope/internal/pipeline"
)

// errNoPassword is returned when analyze password gets neither an argument nor stdin.
var errNoPassword = errors.New("no password given (pass it as an argument or use --stdin)")

// NewAnalyzeCmd creates the analyze command and its url, password and text subcommands.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one URL, password or text",
		Long: `Analyze runs one input through its analyzer and the decision engine and
prints the findings and the decision as JSON.

The decision is stored, aggregated and notified like a REST request
unless --dry-run is given.

Examples:
  riskscope analyze url https://example.com/login
  printf '%s' "$SECRET" | riskscope analyze password --stdin
  riskscope analyze text "Your account is suspended, verify now"`,
	}

	cmd.PersistentFlags().Bool("dry-run", false, "Do not store, aggregate or notify the decision")

	cmd.AddCommand(newAnalyzeKindCmd(model.KindURL, "url <url>", "Check a URL against the scanning service or local heuristics", cobra.ExactArgs(1)))
	passwordCmd := newAnalyzeKindCmd(model.KindPassword, "password [password]", "Check a password for breaches and strength", cobra.MaximumNArgs(1))
	passwordCmd.Flags().Bool("stdin", false, "Read the password from the first line of stdin")
	cmd.AddCommand(passwordCmd)
	textCmd := newAnalyzeKindCmd(model.KindText, "text [text...]", "Classify a text as malicious, suspicious or benign", cobra.ArbitraryArgs)
	textCmd.Flags().Bool("stdin", false, "Read the text from stdin")
	cmd.AddCommand(textCmd)

	return cmd
}

func newAnalyzeKindCmd(kind model.Kind, use, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := analyzeValue(cmd, kind, args)
			if err != nil {
				return err
			}
			in, err := dispatch.NewInput(kind, value)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, in)
		},
	}
}

// analyzeValue returns the value to analyze from args or, for passwords
// and texts given --stdin, from stdin.
func analyzeValue(cmd *cobra.Command, kind model.Kind, args []string) (string, error) {
	if kind == model.KindURL {
		return args[0], nil
	}

	useStdin, err := cmd.Flags().GetBool("stdin")
	if err != nil {
		return "", err
	}

	switch kind {
	case model.KindPassword:
		if useStdin {
			return readLine(cmd.InOrStdin())
		}
		if len(args) == 0 {
			return "", errNoPassword
		}
		return args[0], nil
	default:
		if useStdin {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return "", fmt.Errorf("failed to read stdin: %w", err)
			}
			return string(data), nil
		}
		return strings.Join(args, " "), nil
	}
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errNoPassword
	}
	return line, nil
}

func runAnalyze(cmd *cobra.Command, in model.Input) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger, appOptions{persist: !dryRun, notify: !dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.router.Route(ctx, in)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), newResult(outcome))
}

// result is the printed form of an Outcome.
type result struct {
	Findings   model.Findings `json:"findings"`
	Decision   model.Decision `json:"decision"`
	EventID    int64          `json:"event_id,omitempty"`
	StepErrors []string       `json:"step_errors,omitempty"`
}

func newResult(o *pipeline.Outcome) result {
	return result{
		Findings:   o.Decision.Findings,
		Decision:   o.Decision,
		EventID:    o.EventID,
		StepErrors: o.StepErrors,
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
