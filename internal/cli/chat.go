package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// NewChatCmd creates the 'chat' command, an interactive session against the
// ledger.
func NewChatCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive natural-language session with your ledger",
		Long: `Start a conversation loop. Plain sentences are classified and routed to
the matching handler; deletes are staged and must be confirmed explicitly.`,
		Example: `  ledgerflow chat --user 7
  ledgerflow chat --db postgres://localhost:5432/ledgerflow --model llama3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	opts.RegisterFlags(cmd)
	return cmd
}

func runChat(ctx context.Context, opts *Options) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("ledgerflow | model: %s | user: %d\n", app.Engine.Model(), opts.UserID)
	fmt.Println("Type a question or statement. /help lists commands.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleSlashCommand(ctx, app, input); quit {
				return nil
			}
			continue
		}

		start := time.Now()
		env := app.Classifier.Classify(ctx, input, opts.UserID, opts.SessionID)
		printEnvelope(env, time.Since(start))
	}
	return scanner.Err()
}

func handleSlashCommand(ctx context.Context, app *App, input string) (quit bool) {
	parts := strings.Fields(input)
	deletes := app.Classifier.Deletes()

	switch parts[0] {
	case "/help":
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  /pending           list staged deletes")
		fmt.Println("  /confirm <id>      execute a staged delete")
		fmt.Println("  /cancel <id>       discard a staged delete")
		fmt.Println("  /cancel all        discard every staged delete")
		fmt.Println("  /history [n]       show recent interactions")
		fmt.Println("  /exit              leave")
		fmt.Println()

	case "/pending":
		list := deletes.ListPending(app.Options.UserID)
		if list.Count == 0 {
			fmt.Print("\nNo pending deletes.\n\n")
			return false
		}
		fmt.Printf("\nPending deletes (%d):\n", list.Count)
		for _, pd := range list.Pending {
			fmt.Printf("  %s\n", pd.ConfirmationID)
			fmt.Printf("    Request: %s\n", pd.OriginalQuery)
			fmt.Printf("    Rows:    %d\n", pd.Preview.RowCount)
			fmt.Printf("    Staged:  %s\n", pd.CreatedAt.Format(time.RFC3339))
		}
		fmt.Println()

	case "/confirm":
		if len(parts) < 2 {
			fmt.Println("Usage: /confirm <confirmation-id>")
			return false
		}
		out := deletes.Confirm(ctx, app.Options.UserID, parts[1], true)
		fmt.Printf("\n%s\n\n", out.Message)

	case "/cancel":
		if len(parts) < 2 {
			fmt.Println("Usage: /cancel <confirmation-id> | /cancel all")
			return false
		}
		if parts[1] == "all" {
			n := deletes.CancelAll(app.Options.UserID)
			fmt.Printf("\nCancelled %d pending delete(s).\n\n", n)
			return false
		}
		out := deletes.Confirm(ctx, app.Options.UserID, parts[1], false)
		fmt.Printf("\n%s\n\n", out.Message)

	case "/history":
		limit := 10
		if len(parts) > 1 {
			fmt.Sscanf(parts[1], "%d", &limit)
		}
		printHistory(ctx, app, limit)

	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true

	default:
		fmt.Printf("Unknown command %s. /help lists commands.\n", parts[0])
	}
	return false
}

func printEnvelope(env *models.Envelope, elapsed time.Duration) {
	fmt.Println()
	if env.Result == nil {
		fmt.Println("No result.")
		return
	}

	answer := env.Result.Answer
	if answer == "" {
		answer = env.Result.Message
	}
	fmt.Printf("ledgerflow: %s\n", answer)

	if env.Result.Status == models.StatusConfirmRequired {
		fmt.Printf("\nTo proceed: /confirm %s\nTo discard: /cancel %s\n",
			env.Result.ConfirmationID, env.Result.ConfirmationID)
	}

	fmt.Printf("(%s, %.0f%% confidence, %.2fs)\n\n",
		strings.ToLower(string(env.Intent)), env.Confidence*100, elapsed.Seconds())
}

func printHistory(ctx context.Context, app *App, limit int) {
	if app.AuditLog == nil {
		fmt.Print("\nInteraction log is not available.\n\n")
		return
	}
	entries, err := app.AuditLog.History(ctx, app.Options.UserID, "", limit)
	if err != nil {
		fmt.Printf("\nHistory unavailable: %v\n\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Print("\nNo history yet.\n\n")
		return
	}
	fmt.Println()
	for _, e := range entries {
		fmt.Printf("[%s] You: %s\n", e.Timestamp.Format("Jan 2 15:04"), e.Prompt)
		fmt.Printf("         ledgerflow: %s\n", truncate(e.Response, 120))
	}
	fmt.Println()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
