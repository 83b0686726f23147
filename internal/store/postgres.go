// Package store provides the relational capability behind the pipeline:
// executing one SQL statement against the ledger database, describing the
// queryable views, and resolving user roles for the access gate. Writes run
// inside a statement-scoped transaction committed on success and rolled back
// on any failure.
package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// RoleBusinessSubUser is the restricted role denied natural-language access.
const RoleBusinessSubUser = "business_subuser"

// Config holds the ledger store configuration
type Config struct {
	DatabaseURL string
	MaxConns    int32
}

// DefaultConfig returns the default configuration, honoring LEDGERFLOW_DB_URL.
func DefaultConfig() *Config {
	url := os.Getenv("LEDGERFLOW_DB_URL")
	if url == "" {
		url = "postgres://localhost:5432/ledgerflow"
	}
	return &Config{
		DatabaseURL: url,
		MaxConns:    8,
	}
}

// Ledger executes statements against the finance database.
type Ledger struct {
	pool *pgxpool.Pool
}

// Open connects a Ledger to PostgreSQL.
func Open(ctx context.Context, config *Config) (*Ledger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	poolCfg, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if config.MaxConns > 0 {
		poolCfg.MaxConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Ledger{pool: pool}, nil
}

// Close releases the connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

// IsRead reports whether sql is a read-only statement by verb prefix.
func IsRead(sql string) bool {
	s := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "WITH")
}

// Execute runs one SQL statement. Read statements return columns and rows;
// anything else runs inside a transaction and returns the affected-row count
// in Message. Execution errors are returned to the caller, never swallowed.
func (l *Ledger) Execute(ctx context.Context, sql string) (*models.QueryResult, error) {
	if IsRead(sql) {
		return l.executeRead(ctx, sql)
	}
	return l.executeWrite(ctx, sql)
}

func (l *Ledger) executeRead(ctx context.Context, sql string) (*models.QueryResult, error) {
	rows, err := l.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = string(fd.Name)
	}

	result := &models.QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	result.RowCount = int64(len(result.Rows))
	return result, nil
}

func (l *Ledger) executeWrite(ctx context.Context, sql string) (*models.QueryResult, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	ct, err := tx.Exec(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}

	affected := ct.RowsAffected()
	return &models.QueryResult{
		Columns:  []string{},
		Rows:     [][]any{},
		RowCount: affected,
		Message:  fmt.Sprintf("Query executed successfully. %d rows affected.", affected),
	}, nil
}

// Exec runs a parameterized write statement outside the synthesis path.
func (l *Ledger) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ct, err := l.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

// UserRole returns the role name for a user id.
func (l *Ledger) UserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := l.pool.QueryRow(ctx, `
		SELECT r.role_name
		FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE u.id = $1`, userID).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("role lookup for user %d: %w", userID, err)
	}
	return role, nil
}
