package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// DefaultPendingTTL bounds how long a staged delete stays confirmable.
const DefaultPendingTTL = 10 * time.Minute

// Clock supplies the current time; injectable for expiry tests.
type Clock func() time.Time

var deleteFromRe = regexp.MustCompile(`(?i)DELETE\s+FROM`)

// DeleteWorkflow stages destructive statements behind an explicit
// confirmation step. Candidate SQL is executed only from Confirm, and every
// pending entry is removed from the store before its statement runs, so a
// confirmation id can never fire twice.
type DeleteWorkflow struct {
	engine Engine
	store  Store
	clock  Clock
	ttl    time.Duration

	mu      sync.Mutex
	pending map[string]*models.PendingDelete
}

// NewDeleteWorkflow wires a delete workflow with the default TTL and wall
// clock.
func NewDeleteWorkflow(engine Engine, store Store) *DeleteWorkflow {
	return &DeleteWorkflow{
		engine:  engine,
		store:   store,
		clock:   time.Now,
		ttl:     DefaultPendingTTL,
		pending: make(map[string]*models.PendingDelete),
	}
}

// WithClock overrides the time source. Test hook.
func (w *DeleteWorkflow) WithClock(clock Clock) *DeleteWorkflow {
	w.clock = clock
	return w
}

// WithTTL overrides the pending-delete lifetime.
func (w *DeleteWorkflow) WithTTL(ttl time.Duration) *DeleteWorkflow {
	w.ttl = ttl
	return w
}

// Request synthesizes a DELETE for the sentence, previews the rows it would
// remove via a read-only transform, and stages it for confirmation. Nothing
// destructive executes here.
func (w *DeleteWorkflow) Request(ctx context.Context, sentence string, userID int64, sessionID string) *models.HandlerResult {
	schemaDesc, err := w.store.SchemaDescription(ctx)
	if err != nil {
		return deleteError(err)
	}

	sql, err := w.synthesizeDelete(ctx, sentence, schemaDesc, userID)
	if err != nil {
		return deleteError(err)
	}

	previewSQL := deleteFromRe.ReplaceAllString(sql, "SELECT * FROM")
	if previewSQL == sql {
		return &models.HandlerResult{
			Status:  models.StatusError,
			SQL:     sql,
			Message: "Generated SQL is not a DELETE statement; refusing to stage it.",
		}
	}

	previewResult, err := w.store.Execute(ctx, previewSQL)
	if err != nil {
		return deleteError(fmt.Errorf("delete preview: %w", err))
	}

	if previewResult.RowCount == 0 {
		return &models.HandlerResult{
			Status:  models.StatusNothingToDelete,
			SQL:     sql,
			Message: "No matching records found to delete.",
		}
	}

	pd := &models.PendingDelete{
		ConfirmationID: uuid.New().String(),
		UserID:         userID,
		OriginalQuery:  sentence,
		CandidateSQL:   sql,
		Preview: models.DeletePreview{
			RowCount: previewResult.RowCount,
			Summary:  summarizePreview(previewResult),
		},
		CreatedAt: w.clock(),
		SessionID: sessionID,
	}

	w.mu.Lock()
	w.pending[pd.ConfirmationID] = pd
	w.mu.Unlock()

	return &models.HandlerResult{
		Status:         models.StatusConfirmRequired,
		SQL:            sql,
		ConfirmationID: pd.ConfirmationID,
		Preview:        &pd.Preview,
		Message: fmt.Sprintf("This will delete %d record(s). Confirm with id %s to proceed.",
			pd.Preview.RowCount, pd.ConfirmationID),
	}
}

// Confirm resolves a staged delete. confirmed=false cancels it; confirmed=true
// executes the candidate SQL. Ownership and expiry are checked before
// anything runs, and expired or foreign ids both answer NOT_FOUND so a caller
// cannot probe other users' pending deletes.
func (w *DeleteWorkflow) Confirm(ctx context.Context, userID int64, confirmationID string, confirmed bool) *models.ConfirmOutcome {
	w.mu.Lock()
	pd, ok := w.pending[confirmationID]
	if ok && (pd.UserID != userID || w.clock().Sub(pd.CreatedAt) > w.ttl) {
		if pd.UserID == userID {
			// expired, drop it
			delete(w.pending, confirmationID)
		}
		ok = false
	}
	if ok {
		delete(w.pending, confirmationID)
	}
	w.mu.Unlock()

	if !ok {
		return &models.ConfirmOutcome{
			Success:        false,
			Status:         models.StatusNotFound,
			Message:        "No pending delete found for that confirmation id. It may have expired.",
			ConfirmationID: confirmationID,
		}
	}

	if !confirmed {
		return &models.ConfirmOutcome{
			Success:        true,
			Status:         models.StatusCancelled,
			Message:        "Delete cancelled. No records were removed.",
			ConfirmationID: confirmationID,
		}
	}

	result, err := w.store.Execute(ctx, pd.CandidateSQL)
	if err != nil {
		return &models.ConfirmOutcome{
			Success:        false,
			Status:         models.StatusError,
			Message:        fmt.Sprintf("Delete failed: %v", err),
			ConfirmationID: confirmationID,
		}
	}

	return &models.ConfirmOutcome{
		Success:        true,
		Status:         models.StatusComplete,
		Message:        fmt.Sprintf("Deleted %d record(s).", result.RowCount),
		RowsDeleted:    result.RowCount,
		ConfirmationID: confirmationID,
	}
}

// ListPending returns the caller's live staged deletes, oldest first.
// Expired entries are purged as a side effect.
func (w *DeleteWorkflow) ListPending(userID int64) *models.PendingList {
	now := w.clock()

	w.mu.Lock()
	var mine []*models.PendingDelete
	for id, pd := range w.pending {
		if now.Sub(pd.CreatedAt) > w.ttl {
			delete(w.pending, id)
			continue
		}
		if pd.UserID == userID {
			mine = append(mine, pd)
		}
	}
	w.mu.Unlock()

	for i := 0; i < len(mine); i++ {
		for j := i + 1; j < len(mine); j++ {
			if mine[j].CreatedAt.Before(mine[i].CreatedAt) {
				mine[i], mine[j] = mine[j], mine[i]
			}
		}
	}

	status := models.StatusNone
	if len(mine) > 0 {
		status = models.StatusHasPending
	}
	return &models.PendingList{Status: status, Count: len(mine), Pending: mine}
}

// CancelAll discards every staged delete for the user and reports how many
// were dropped.
func (w *DeleteWorkflow) CancelAll(userID int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for id, pd := range w.pending {
		if pd.UserID == userID {
			delete(w.pending, id)
			n++
		}
	}
	return n
}

func (w *DeleteWorkflow) synthesizeDelete(ctx context.Context, sentence, schemaDesc string, userID int64) (string, error) {
	prompt := fmt.Sprintf(`You are a SQL generator for PostgreSQL. Generate a single DELETE statement.
You only speak in SQL code without extra characters or explanations.

Database Schema:
%s

RULES:
1. Generate exactly one DELETE statement
2. The WHERE clause MUST include user_id = {{USER_ID}} (always use this exact placeholder)
3. Never delete rows belonging to other users
4. Return ONLY the SQL, no explanations

USER REQUEST: "%s"

SQL:`, schemaDesc, sentence)

	result, err := w.engine.GenerateSync(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("sql synthesis: %w", err)
	}

	sql := CleanSQL(result.Response)
	if sql == "" {
		return "", fmt.Errorf("sql synthesis: engine returned no SQL")
	}
	sql, _ = bindUserID(sql, userID)
	if !strings.HasPrefix(strings.ToUpper(sql), "DELETE") {
		return "", fmt.Errorf("sql synthesis: expected a DELETE statement")
	}
	if err := ensureUserScope(sql, "DELETE", userID); err != nil {
		return "", err
	}
	if !strings.Contains(strings.ToUpper(sql), "WHERE") {
		return "", fmt.Errorf("generated DELETE has no WHERE clause; refusing to stage it")
	}
	return sql, nil
}

func summarizePreview(res *models.QueryResult) string {
	if len(res.Rows) == 0 {
		return "no rows"
	}
	limit := 3
	if len(res.Rows) < limit {
		limit = len(res.Rows)
	}
	var parts []string
	for _, row := range res.Rows[:limit] {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			if v != nil {
				cells = append(cells, fmt.Sprint(v))
			}
		}
		parts = append(parts, strings.Join(cells, " "))
	}
	summary := strings.Join(parts, "; ")
	if len(res.Rows) > limit {
		summary += fmt.Sprintf(" (and %d more)", len(res.Rows)-limit)
	}
	return summary
}

func deleteError(err error) *models.HandlerResult {
	return &models.HandlerResult{
		Status:  models.StatusError,
		Message: fmt.Sprintf("I encountered an error while processing your request: %v", err),
	}
}
