package store

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestIsRead(t *testing.T) {
	reads := []string{
		"SELECT * FROM llm_transaction_summary",
		"  select sum(amount) from llm_transaction_summary",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"\nwith t as (select 1) select * from t",
	}
	for _, sql := range reads {
		if !IsRead(sql) {
			t.Errorf("IsRead(%q) = false, want true", sql)
		}
	}

	writes := []string{
		"INSERT INTO transactions (user_id, amount) VALUES (1, -5)",
		"UPDATE budgets SET planned = 100 WHERE user_id = 1",
		"DELETE FROM transactions WHERE user_id = 1",
		"",
	}
	for _, sql := range writes {
		if IsRead(sql) {
			t.Errorf("IsRead(%q) = true, want false", sql)
		}
	}
}

func TestDefaultConfigHonorsEnv(t *testing.T) {
	t.Setenv("LEDGERFLOW_DB_URL", "postgres://example:5432/other")
	cfg := DefaultConfig()
	if cfg.DatabaseURL != "postgres://example:5432/other" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}

	t.Setenv("LEDGERFLOW_DB_URL", "")
	cfg = DefaultConfig()
	if cfg.DatabaseURL != "postgres://localhost:5432/ledgerflow" {
		t.Fatalf("fallback DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.MaxConns != 8 {
		t.Fatalf("MaxConns = %d", cfg.MaxConns)
	}
}

// TestLedgerIntegration exercises the store against a live database when one
// is configured. Skipped otherwise.
func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	url := os.Getenv("LEDGERFLOW_TEST_DB_URL")
	if url == "" {
		t.Skip("LEDGERFLOW_TEST_DB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ledger, err := Open(ctx, &Config{DatabaseURL: url, MaxConns: 2})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ledger.Close()

	res, err := ledger.Execute(ctx, "SELECT 1 AS one")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.RowCount != 1 || len(res.Columns) != 1 || res.Columns[0] != "one" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
