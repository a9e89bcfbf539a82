package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/pipeline"
)

// maxLineBytes bounds one JSON line of route input.
const maxLineBytes = 1 << 20

// errNoInputs is returned when route has nothing to route.
var errNoInputs = errors.New("no inputs given (pass tagged JSON as arguments or use --file)")

// NewRouteCmd creates the route command.
func NewRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route [tagged-json...]",
		Short: "Route tagged inputs through analysis and decision",
		Long: `Route analyzes tagged inputs of the form
  {"type": "url|password|text", "url"|"password"|"text"|"payload": "..."}

Inputs are given as arguments or read as JSON lines from --file ("-" for stdin).
Inputs are routed concurrently (--batch) and one JSON line is printed per input,
in input order. Inputs with an unknown type are reported and do not stop the
batch.

Examples:
  riskscope route '{"type":"url","url":"https://example.com"}'
  riskscope route --file inputs.jsonl --batch 20`,
		Args: cobra.ArbitraryArgs,
		RunE: runRouteCmd,
	}

	cmd.Flags().StringP("file", "f", "", `JSON lines file to route ("-" for stdin)`)
	cmd.Flags().IntP("batch", "b", 0, "Number of inputs routed concurrently (default from configuration)")
	cmd.Flags().Bool("dry-run", false, "Do not store, aggregate or notify the decisions")

	return cmd
}

// routeLine is one printed result.
type routeLine struct {
	Index int `json:"index"`
	*result
	Error string `json:"error,omitempty"`
}

func runRouteCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	inputs, err := collectInputs(cmd, args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errNoInputs
	}

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	if batch <= 0 {
		batch = cfg.BatchSize
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

	bp := pipeline.NewBatchProcessor(a.router.RouteTagged,
		pipeline.WithConcurrency(batch),
		pipeline.WithBatchLogger(logger),
	)
	results, err := bp.ProcessBatch(ctx, inputs)

	failed := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		line := routeLine{Index: r.Index}
		switch {
		case r.Err != nil:
			line.Error = r.Err.Error()
			failed++
		case r.Outcome != nil:
			res := newResult(r.Outcome)
			line.result = &res
		default:
			line.Error = "not routed"
			failed++
		}
		if err := printJSONLine(out, line); err != nil {
			return err
		}
	}

	if err != nil {
		return fmt.Errorf("routing interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}

// collectInputs returns the raw tagged inputs from args and --file.
func collectInputs(cmd *cobra.Command, args []string) ([][]byte, error) {
	inputs := make([][]byte, 0, len(args))
	for _, arg := range args {
		inputs = append(inputs, []byte(arg))
	}

	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return inputs, nil
	}

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path) //nolint:gosec // path is given by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	lines, err := readJSONLines(r)
	if err != nil {
		return nil, err
	}
	return append(inputs, lines...), nil
}

// readJSONLines returns the non-blank lines of r.
func readJSONLines(r io.Reader) ([][]byte, error) {
	var lines [][]byte
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, bytes.Clone(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	return lines, nil
}

// printJSONLine writes v as a single JSON line.
func printJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
