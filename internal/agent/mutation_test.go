package agent

import (
	"context"
	"testing"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

func TestEnsureUserScope(t *testing.T) {
	cases := []struct {
		name    string
		sql     string
		verb    string
		wantErr bool
	}{
		{
			name: "scoped insert",
			sql:  "INSERT INTO transactions (user_id, amount) VALUES (7, -5.00)",
			verb: "INSERT",
		},
		{
			name:    "insert missing user id",
			sql:     "INSERT INTO transactions (amount) VALUES (-5.00)",
			verb:    "INSERT",
			wantErr: true,
		},
		{
			name: "scoped update",
			sql:  "UPDATE budgets SET planned = 900 WHERE user_id = 7",
			verb: "UPDATE",
		},
		{
			name:    "update without where",
			sql:     "UPDATE budgets SET planned = 7",
			verb:    "UPDATE",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ensureUserScope(tc.sql, tc.verb, 7)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ensureUserScope(%q) error = %v, wantErr %v", tc.sql, err, tc.wantErr)
			}
		})
	}
}

func TestCreateRejectsNonInsert(t *testing.T) {
	engine := (&fakeEngine{}).on("INSERT statement", "DELETE FROM transactions WHERE user_id = 7")
	m := NewMutationHandler(engine, newFakeStore())

	res := m.Create(context.Background(), "log I spent $5 on coffee", 7)
	if res.Status != models.StatusError {
		t.Fatalf("status = %s, want ERROR", res.Status)
	}
}

func TestUpdateRejectsUnscopedStatement(t *testing.T) {
	engine := (&fakeEngine{}).on("UPDATE statement", "UPDATE budgets SET planned = 900")
	store := newFakeStore()
	m := NewMutationHandler(engine, store)

	res := m.Update(context.Background(), "change my rent budget to 900", 7)
	if res.Status != models.StatusError {
		t.Fatalf("status = %s, want ERROR", res.Status)
	}
	if len(store.executed) != 0 {
		t.Fatalf("unscoped UPDATE must not execute: %v", store.executed)
	}
}

func TestUpdateSuccess(t *testing.T) {
	sql := "UPDATE budgets SET planned = 900 WHERE user_id = 7"
	engine := (&fakeEngine{}).on("UPDATE statement", "UPDATE budgets SET planned = 900 WHERE user_id = {{USER_ID}}")
	store := newFakeStore()
	store.results[sql] = &models.QueryResult{RowCount: 1, Message: "Query executed successfully. 1 rows affected."}
	m := NewMutationHandler(engine, store)

	res := m.Update(context.Background(), "change my rent budget to 900", 7)
	if res.Status != models.StatusComplete {
		t.Fatalf("result = %+v", res)
	}
	if res.SQL != sql {
		t.Fatalf("sql = %q", res.SQL)
	}
	if res.Message != "Query executed successfully. 1 rows affected." {
		t.Fatalf("message = %q", res.Message)
	}
}
