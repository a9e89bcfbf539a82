package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Long: `Config prints the configuration riskscope would run with after applying
defaults, the configuration file, environment variables and flags.
API keys, passwords and webhook paths are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.ConfigFilePath != "" {
				fmt.Fprintf(out, "# loaded from %s\n", cfg.ConfigFilePath)
			} else {
				fmt.Fprintln(out, "# no configuration file found, using defaults and environment")
			}

			data, err := yaml.Marshal(cfg.Masked())
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}
