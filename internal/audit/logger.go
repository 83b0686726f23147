// Package audit persists every prompt/response exchange handled by the
// pipeline. The log is append-only from the pipeline's point of view;
// clearing history is a privileged operation exposed separately.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// Logger records interaction log entries in SQLite.
type Logger struct {
	db *sql.DB
}

// New opens (or creates) the interaction log at dbPath.
func New(dbPath string) (*Logger, error) {
	if strings.HasPrefix(dbPath, "~/") {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, dbPath[2:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &Logger{db: db}
	if err := logger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return logger, nil
}

func (l *Logger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS llm_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		session_id TEXT,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_llm_logs_user ON llm_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_llm_logs_timestamp ON llm_logs(timestamp);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Log appends one prompt/response pair. It never fails the caller: a
// telemetry failure must not block a user-facing response, so errors are
// reported to stderr and dropped. Safe on a nil Logger.
func (l *Logger) Log(ctx context.Context, userID int64, sessionID, prompt, response string) {
	if l == nil {
		return
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO llm_logs (user_id, session_id, prompt, response, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		userID, nullable(sessionID), prompt, response, time.Now().UTC())
	if err != nil {
		log.Printf("audit: failed to record interaction for user %d: %v", userID, err)
	}
}

// History returns up to limit entries for a user, oldest first. An empty
// sessionID returns all sessions.
func (l *Logger) History(ctx context.Context, userID int64, sessionID string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT id, user_id, COALESCE(session_id, ''), prompt, response, timestamp FROM llm_logs WHERE user_id = ?"
	args := []any{userID}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY timestamp ASC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.Prompt, &e.Response, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearHistory deletes a user's entries (optionally one session) and returns
// the number removed. This is the privileged path, not part of the pipeline.
func (l *Logger) ClearHistory(ctx context.Context, userID int64, sessionID string) (int64, error) {
	query := "DELETE FROM llm_logs WHERE user_id = ?"
	args := []any{userID}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
