package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/audit"
)

// NewHistoryCmd creates the 'history' command over the interaction log.
func NewHistoryCmd() *cobra.Command {
	opts := &Options{}
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the interaction log",
		Example: `  ledgerflow history --user 7
  ledgerflow history --user 7 --session cli-1714000000
  ledgerflow history --user 7 --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, limit, clear)
		},
	}

	opts.RegisterFlags(cmd)
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the user's logged interactions instead of showing them")
	return cmd
}

// runHistory opens only the log; no database or engine connection is needed.
func runHistory(ctx context.Context, opts *Options, limit int, clear bool) error {
	logger, err := audit.New(opts.LogPath)
	if err != nil {
		return fmt.Errorf("open interaction log: %w", err)
	}
	defer logger.Close()

	if clear {
		n, err := logger.ClearHistory(ctx, opts.UserID, opts.SessionID)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries.\n", n)
		return nil
	}

	entries, err := logger.History(ctx, opts.UserID, opts.SessionID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history.")
		return nil
	}

	for _, e := range entries {
		session := e.SessionID
		if session == "" {
			session = "-"
		}
		fmt.Printf("[%s] (%s)\n", e.Timestamp.Format("2006-01-02 15:04:05"), session)
		fmt.Printf("  You:        %s\n", e.Prompt)
		fmt.Printf("  ledgerflow: %s\n\n", e.Response)
	}
	return nil
}
