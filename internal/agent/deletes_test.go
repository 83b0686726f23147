package agent

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

const foodDeleteSQL = "DELETE FROM transactions WHERE user_id = 7 AND category_name = 'Food & Dining'"

func deleteFixture(t *testing.T) (*DeleteWorkflow, *fakeStore) {
	t.Helper()

	engine := (&fakeEngine{}).on("DELETE statement",
		"DELETE FROM transactions WHERE user_id = {{USER_ID}} AND category_name = 'Food & Dining'")
	store := newFakeStore()
	store.results["SELECT * FROM transactions WHERE user_id = 7 AND category_name = 'Food & Dining'"] = &models.QueryResult{
		Columns:  []string{"amount", "category_name"},
		Rows:     [][]any{{-40.0, "Food & Dining"}, {-12.5, "Food & Dining"}},
		RowCount: 2,
	}
	store.results[foodDeleteSQL] = &models.QueryResult{RowCount: 2, Message: "2 rows affected"}
	return NewDeleteWorkflow(engine, store), store
}

func TestDeleteLifecycle(t *testing.T) {
	w, store := deleteFixture(t)
	ctx := context.Background()

	res := w.Request(ctx, "delete my food expenses", 7, "s1")
	if res.Status != models.StatusConfirmRequired {
		t.Fatalf("Request status = %s, want CONFIRM_REQUIRED (%s)", res.Status, res.Message)
	}
	if res.ConfirmationID == "" {
		t.Fatal("missing confirmation id")
	}
	if res.Preview == nil || res.Preview.RowCount != 2 {
		t.Fatalf("bad preview: %+v", res.Preview)
	}
	// only the read-only preview has executed so far
	for _, sql := range store.executed {
		if sql == foodDeleteSQL {
			t.Fatal("DELETE executed before confirmation")
		}
	}

	out := w.Confirm(ctx, 7, res.ConfirmationID, true)
	if !out.Success || out.Status != models.StatusComplete {
		t.Fatalf("Confirm outcome = %+v", out)
	}
	if out.RowsDeleted != 2 {
		t.Fatalf("RowsDeleted = %d, want 2", out.RowsDeleted)
	}
	found := false
	for _, sql := range store.executed {
		if sql == foodDeleteSQL {
			found = true
		}
	}
	if !found {
		t.Fatal("DELETE never executed after confirmation")
	}
}

func TestDeleteDoubleConfirm(t *testing.T) {
	w, _ := deleteFixture(t)
	ctx := context.Background()

	res := w.Request(ctx, "delete my food expenses", 7, "s1")
	first := w.Confirm(ctx, 7, res.ConfirmationID, true)
	if first.Status != models.StatusComplete {
		t.Fatalf("first confirm: %+v", first)
	}

	second := w.Confirm(ctx, 7, res.ConfirmationID, true)
	if second.Success || second.Status != models.StatusNotFound {
		t.Fatalf("second confirm must be NOT_FOUND, got %+v", second)
	}
}

func TestDeleteCancel(t *testing.T) {
	w, store := deleteFixture(t)
	ctx := context.Background()

	res := w.Request(ctx, "delete my food expenses", 7, "s1")
	out := w.Confirm(ctx, 7, res.ConfirmationID, false)
	if !out.Success || out.Status != models.StatusCancelled {
		t.Fatalf("cancel outcome = %+v", out)
	}
	for _, sql := range store.executed {
		if sql == foodDeleteSQL {
			t.Fatal("cancelled delete must never execute")
		}
	}
	if list := w.ListPending(7); list.Count != 0 {
		t.Fatalf("cancelled entry still pending: %+v", list)
	}
}

func TestDeleteCrossUserIsolation(t *testing.T) {
	w, _ := deleteFixture(t)
	ctx := context.Background()

	res := w.Request(ctx, "delete my food expenses", 7, "s1")

	out := w.Confirm(ctx, 99, res.ConfirmationID, true)
	if out.Success || out.Status != models.StatusNotFound {
		t.Fatalf("foreign user must get NOT_FOUND, got %+v", out)
	}

	// the entry survives for the owner
	own := w.Confirm(ctx, 7, res.ConfirmationID, true)
	if own.Status != models.StatusComplete {
		t.Fatalf("owner confirm after foreign probe: %+v", own)
	}

	if list := w.ListPending(99); list.Status != models.StatusNone || list.Count != 0 {
		t.Fatalf("foreign user sees pending entries: %+v", list)
	}
}

func TestDeleteExpiry(t *testing.T) {
	w, _ := deleteFixture(t)
	ctx := context.Background()

	now := time.Now()
	w.WithClock(func() time.Time { return now })

	res := w.Request(ctx, "delete my food expenses", 7, "s1")

	now = now.Add(DefaultPendingTTL + time.Second)
	out := w.Confirm(ctx, 7, res.ConfirmationID, true)
	if out.Success || out.Status != models.StatusNotFound {
		t.Fatalf("expired confirm must be NOT_FOUND, got %+v", out)
	}

	if list := w.ListPending(7); list.Count != 0 {
		t.Fatalf("expired entry still listed: %+v", list)
	}
}

func TestDeleteNothingToDelete(t *testing.T) {
	engine := (&fakeEngine{}).on("DELETE statement", foodDeleteSQL)
	store := newFakeStore() // preview falls back to an empty result
	w := NewDeleteWorkflow(engine, store)

	res := w.Request(context.Background(), "delete my food expenses", 7, "s1")
	if res.Status != models.StatusNothingToDelete {
		t.Fatalf("status = %s, want NOTHING_TO_DELETE", res.Status)
	}
}

func TestDeleteRejectsUnscopedSQL(t *testing.T) {
	engine := (&fakeEngine{}).on("DELETE statement", "DELETE FROM transactions")
	w := NewDeleteWorkflow(engine, newFakeStore())

	res := w.Request(context.Background(), "delete everything", 7, "s1")
	if res.Status != models.StatusError {
		t.Fatalf("unscoped DELETE must be rejected, got %s", res.Status)
	}
}

func TestDeleteListPendingAndCancelAll(t *testing.T) {
	w, store := deleteFixture(t)
	ctx := context.Background()

	w.Request(ctx, "delete my food expenses", 7, "s1")
	w.Request(ctx, "delete my food expenses", 7, "s1")

	list := w.ListPending(7)
	if list.Status != models.StatusHasPending || list.Count != 2 {
		t.Fatalf("list = %+v", list)
	}

	if n := w.CancelAll(7); n != 2 {
		t.Fatalf("CancelAll = %d, want 2", n)
	}
	if list := w.ListPending(7); list.Status != models.StatusNone {
		t.Fatalf("after CancelAll: %+v", list)
	}
	for _, sql := range store.executed {
		if sql == foodDeleteSQL {
			t.Fatal("CancelAll must not execute anything")
		}
	}
}
