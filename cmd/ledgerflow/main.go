/*
Package main is the entry point for the ledgerflow CLI.

ledgerflow answers natural-language questions about a personal-finance
database. Sentences are classified into view, create, update, or delete
intents; SQL is synthesized against the ledger views and executed, and
answers are extracted from the real result rows. Deletes are never executed
directly: they are staged with a preview and require explicit confirmation.

Usage:

	ledgerflow [command]

Available Commands:

	chat        Interactive session (includes delete confirmation)
	ask         One-shot question
	history     Show or clear the interaction log
	models      List models on the Ollama host
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/cli"
)

var version = "0.1.0"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	rootCmd := &cobra.Command{
		Use:     "ledgerflow",
		Short:   "Talk to your finance database in plain language",
		Version: version,
	}

	rootCmd.AddCommand(cli.NewChatCmd())
	rootCmd.AddCommand(cli.NewAskCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
