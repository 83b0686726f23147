// Package cli implements the ledgerflow command surface: an interactive chat
// session, one-shot questions, and interaction-log maintenance.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/ledgerflow/ledgerflow/internal/agent"
	"github.com/ledgerflow/ledgerflow/internal/audit"
	"github.com/ledgerflow/ledgerflow/internal/inference"
	"github.com/ledgerflow/ledgerflow/internal/memory"
	"github.com/ledgerflow/ledgerflow/internal/store"
)

const classificationTTL = 30 * time.Minute

// Options are the connection settings shared by every command.
type Options struct {
	DatabaseURL string
	OllamaURL   string
	Model       string
	UserID      int64
	SessionID   string
	LogPath     string
	RedisAddr   string
	BadgerPath  string
}

// RegisterFlags binds the shared flags on a command.
func (o *Options) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DatabaseURL, "db", "", "PostgreSQL URL (defaults to LEDGERFLOW_DB_URL)")
	cmd.Flags().StringVar(&o.OllamaURL, "ollama-url", "", "Ollama base URL")
	cmd.Flags().StringVar(&o.Model, "model", "", "Ollama model name")
	cmd.Flags().Int64Var(&o.UserID, "user", 1, "Ledger user id to act as")
	cmd.Flags().StringVar(&o.SessionID, "session", "", "Session id for the interaction log")
	cmd.Flags().StringVar(&o.LogPath, "log-path", "~/.ledgerflow/logs.db", "SQLite interaction log path")
	cmd.Flags().StringVar(&o.RedisAddr, "redis", "", "Redis address for the shared classification cache (optional)")
	cmd.Flags().StringVar(&o.BadgerPath, "badger-path", "", "Badger directory for persistent conversation context (optional)")
}

// App is a fully wired pipeline plus the resources it owns.
type App struct {
	Classifier *agent.Classifier
	Engine     *inference.Client
	Ledger     *store.Ledger
	AuditLog   *audit.Logger
	Context    *memory.Context
	Cache      *agent.ClassCache
	Options    *Options
}

// NewApp connects every backend named in opts and assembles the pipeline.
// Optional backends (redis, badger, the interaction log) degrade to nil
// rather than failing startup.
func NewApp(ctx context.Context, opts *Options) (*App, error) {
	engineCfg := inference.DefaultConfig()
	if opts.OllamaURL != "" {
		engineCfg.OllamaURL = opts.OllamaURL
	}
	if opts.Model != "" {
		engineCfg.Model = opts.Model
	}
	engine := inference.NewClient(engineCfg)

	storeCfg := store.DefaultConfig()
	if opts.DatabaseURL != "" {
		storeCfg.DatabaseURL = opts.DatabaseURL
	}
	ledger, err := store.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("connect ledger database: %w", err)
	}

	var rdb *redis.Client
	if opts.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			fmt.Printf("Warning: redis unavailable, using local cache only: %v\n", err)
			rdb = nil
		}
	}
	cache := agent.NewClassCache(classificationTTL, rdb)

	contextMem, err := memory.NewContext(opts.BadgerPath)
	if err != nil {
		fmt.Printf("Warning: conversation context unavailable: %v\n", err)
		contextMem = nil
	}

	auditLog, err := audit.New(opts.LogPath)
	if err != nil {
		fmt.Printf("Warning: interaction log unavailable: %v\n", err)
		auditLog = nil
	}

	if opts.SessionID == "" {
		opts.SessionID = fmt.Sprintf("cli-%d", time.Now().Unix())
	}

	return &App{
		Classifier: agent.NewClassifier(engine, ledger, cache, auditLog, contextMem),
		Engine:     engine,
		Ledger:     ledger,
		AuditLog:   auditLog,
		Context:    contextMem,
		Cache:      cache,
		Options:    opts,
	}, nil
}

// Close releases every backend the app owns.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.Context != nil {
		a.Context.Close()
	}
	if a.AuditLog != nil {
		a.AuditLog.Close()
	}
	if a.Ledger != nil {
		a.Ledger.Close()
	}
}
