package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/inference"
)

// NewModelsCmd creates the 'models' command listing what Ollama serves.
func NewModelsCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), opts)
		},
	}

	opts.RegisterFlags(cmd)
	return cmd
}

func runModels(ctx context.Context, opts *Options) error {
	cfg := inference.DefaultConfig()
	if opts.OllamaURL != "" {
		cfg.OllamaURL = opts.OllamaURL
	}
	client := inference.NewClient(cfg)

	names, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(names) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull llama3")
		return nil
	}
	for _, name := range names {
		marker := " "
		if name == cfg.Model {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}
