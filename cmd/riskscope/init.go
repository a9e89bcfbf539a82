package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/config"
)

//go:embed templates/riskscope.yaml
var configTemplate []byte

type initOptions struct {
	output string
	xdg    bool
	force  bool
}

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented riskscope configuration file",
		Long: `Init writes a configuration file listing every option with its default.

Secrets such as VT_API_KEY, OPENAI_API_KEY and SMTP_PASS are left commented
out. Keep them in the environment rather than in the file.

Examples:
  riskscope init               # ./.riskscope.yaml
  riskscope init --xdg         # $XDG_CONFIG_HOME/riskscope/config.yaml
  riskscope init -o ops.yaml -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.output
			if opts.xdg {
				path = filepath.Join(config.XDGConfigDir(), config.XDGConfigFile)
			}
			if err := writeConfigTemplate(path, opts.force); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created configuration file: %s\n\n", path)
			fmt.Fprintln(out, "Provide API keys through the environment:")
			fmt.Fprintln(out, "  export VT_API_KEY=...")
			fmt.Fprintln(out, "  export OPENAI_API_KEY=...")
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", config.DefaultConfigFile, "path of the file to create")
	cmd.Flags().BoolVar(&opts.xdg, "xdg", false, "write to the XDG config directory, ignoring --output")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "replace an existing file")
	return cmd
}

// writeConfigTemplate creates path with owner-only permissions, since the
// file may later hold API keys. An existing file is kept unless force is set.
func writeConfigTemplate(path string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Clean(path), flags, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
