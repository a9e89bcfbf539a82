package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/config"
	"github.com/nao1215/riskscope/internal/memory"
)

// NewMemoryCmd creates the memory command.
func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Show aggregated statistics and recent decisions",
		Long: `Memory prints the aggregated view kept next to the event store:
long-term totals (average score, action and kind counts, most seen URLs,
most flagged domains, password strength distribution) and the short-term
list of the most recent decisions.`,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print long-term statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openMemory(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), store.Summary())
		},
	}

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			store, err := openMemory(cmd)
			if err != nil {
				return err
			}

			entries := store.Recent(limit)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			printMemoryEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	recentCmd.Flags().IntP("limit", "n", 10, "Maximum number of entries (0 for all)")
	recentCmd.Flags().BoolP("json", "j", false, "Output JSON")

	cmd.AddCommand(summaryCmd, recentCmd)
	return cmd
}

// openMemory loads the configuration and opens the memory file.
func openMemory(cmd *cobra.Command) (*memory.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openMemoryStore(cmd, cfg)
}

func openMemoryStore(cmd *cobra.Command, cfg *config.Config) (*memory.Store, error) {
	store, err := memory.Open(cfg.MemoryPath, memory.WithLogger(newLogger(cmd, cfg)))
	if err != nil {
		return nil, fmt.Errorf("failed to open memory: %w", err)
	}
	return store, nil
}

func printMemoryEntries(w io.Writer, entries []memory.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recent decisions")
		return
	}

	fmt.Fprintf(w, "%-19s  %-8s  %-5s  %-6s  %s\n", "Date", "Kind", "Score", "Action", "Input")
	for _, e := range entries {
		fmt.Fprintf(w, "%-19s  %-8s  %-5d  %-6s  %s\n",
			e.Timestamp.Local().Format(timeLayout),
			e.Kind,
			e.Score,
			e.Action,
			truncate(e.InputRef, 60),
		)
	}
}
