package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/config"
	"github.com/nao1215/riskscope/internal/database"
	"github.com/nao1215/riskscope/internal/model"
)

// timeLayout is used for timestamps in human-readable output.
const timeLayout = "2006-01-02 15:04:05"

// NewEventsCmd creates the events command.
// It reads and prunes the decisions stored by analyze, route and serve.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, show or delete stored decisions",
		Long: `Events reads the decisions stored in the event store (SQLite by default,
PostgreSQL when database_url is a postgres:// URL).

Examples:
  # Show the 20 most recent decisions
  riskscope events list --limit 20

  # Show one decision as JSON
  riskscope events show 42

  # Delete a decision
  riskscope events delete 42`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent decisions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runEventsList,
	}
	listCmd.Flags().IntP("limit", "n", database.DefaultRecentLimit, "Maximum number of decisions")
	listCmd.Flags().BoolP("json", "j", false, "Output JSON")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one decision as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runEventsShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one decision",
		Args:  cobra.ExactArgs(1),
		RunE:  runEventsDelete,
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// withEventStore loads the configuration, opens the event store and runs fn.
func withEventStore(cmd *cobra.Command, fn func(ctx context.Context, store *database.EventStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cmd, cfg)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	store, err := openEventStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

func openEventStore(ctx context.Context, cfg *config.Config) (*database.EventStore, error) {
	store, err := database.Open(ctx, cfg.DatabaseURL, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	return store, nil
}

func runEventsList(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return withEventStore(cmd, func(ctx context.Context, store *database.EventStore) error {
		events, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		if asJSON {
			if events == nil {
				events = []model.Event{}
			}
			return printJSON(cmd.OutOrStdout(), events)
		}
		printEventTable(cmd.OutOrStdout(), events)
		if len(events) == 0 {
			return nil
		}
		total, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d stored decisions\n", len(events), total)
		return nil
	})
}

// printEventTable writes events as an aligned table.
func printEventTable(w io.Writer, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No stored decisions")
		return
	}

	fmt.Fprintf(w, "%-6s  %-19s  %-8s  %-5s  %-6s  %s\n", "ID", "Date", "Kind", "Score", "Action", "Input")
	for _, e := range events {
		fmt.Fprintf(w, "%-6d  %-19s  %-8s  %-5d  %-6s  %s\n",
			e.ID,
			e.Timestamp.Local().Format(timeLayout),
			e.Decision.Kind,
			e.Decision.CombinedScore,
			e.Decision.Action,
			truncate(e.Decision.InputRef, 60),
		)
	}
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return err
	}
	return withEventStore(cmd, func(ctx context.Context, store *database.EventStore) error {
		event, err := store.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), event)
	})
}

func runEventsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseEventID(args[0])
	if err != nil {
		return err
	}
	return withEventStore(cmd, func(ctx context.Context, store *database.EventStore) error {
		if err := store.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %d\n", id)
		return nil
	})
}

func parseEventID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q: must be a positive integer", s)
	}
	return id, nil
}

// truncate shortens s to at most n runes, ending with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
