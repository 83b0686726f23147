package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// NewAskCmd creates the 'ask' command for one-shot questions.
func NewAskCmd() *cobra.Command {
	opts := &Options{}
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ask <sentence>",
		Short: "Ask one question and exit",
		Long: `Classify and execute a single sentence. A delete request only stages the
delete and prints its confirmation id; run 'ledgerflow chat' to confirm it,
since staged deletes live in process memory.`,
		Example: `  ledgerflow ask "how much did I spend this month" --user 7
  ledgerflow ask "I spent \$40 on groceries" --user 7
  ledgerflow ask "show my budget" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), opts, strings.Join(args, " "), jsonOutput)
		},
	}

	opts.RegisterFlags(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result envelope as JSON")
	return cmd
}

func runAsk(ctx context.Context, opts *Options, sentence string, jsonOutput bool) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	env := app.Classifier.Classify(ctx, sentence, opts.UserID, opts.SessionID)

	if jsonOutput {
		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if env.Result == nil {
		fmt.Println("No result.")
		return nil
	}
	answer := env.Result.Answer
	if answer == "" {
		answer = env.Result.Message
	}
	fmt.Println(answer)

	if env.Result.Status == models.StatusConfirmRequired {
		fmt.Printf("\nConfirmation id: %s\n", env.Result.ConfirmationID)
		fmt.Println("Staged deletes are confirmed from an interactive session: ledgerflow chat")
	}
	return nil
}
