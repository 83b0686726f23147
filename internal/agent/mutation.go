package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// MutationHandler synthesizes and executes INSERT and UPDATE statements.
// Deletes never pass through here; they require the confirmation workflow.
type MutationHandler struct {
	engine Engine
	store  Store
}

// NewMutationHandler wires a mutation handler.
func NewMutationHandler(engine Engine, store Store) *MutationHandler {
	return &MutationHandler{engine: engine, store: store}
}

// Create synthesizes an INSERT for the sentence and executes it.
func (m *MutationHandler) Create(ctx context.Context, sentence string, userID int64) *models.HandlerResult {
	schemaDesc, err := m.store.SchemaDescription(ctx)
	if err != nil {
		return mutationError(err)
	}

	prompt := fmt.Sprintf(`You are a SQL generator for PostgreSQL. Generate a single INSERT statement.
You only speak in SQL code without extra characters or explanations.

Database Schema:
%s

RULES:
1. Generate exactly one INSERT statement
2. Always set user_id = {{USER_ID}} (always use this exact placeholder)
3. Spending amounts are negative, income amounts are positive
4. Use created_at = CURRENT_TIMESTAMP when a timestamp column exists
5. Return ONLY the SQL, no explanations

EXAMPLES:
- "log I spent $45 on groceries" -> INSERT INTO transactions (user_id, amount, description, created_at) VALUES ({{USER_ID}}, -45.00, 'groceries', CURRENT_TIMESTAMP)
- "record I earned $500 from freelance" -> INSERT INTO transactions (user_id, amount, description, created_at) VALUES ({{USER_ID}}, 500.00, 'freelance', CURRENT_TIMESTAMP)

USER REQUEST: "%s"

SQL:`, schemaDesc, enhanceForHandler(sentence, models.IntentCreate))

	return m.synthesizeAndRun(ctx, prompt, userID, "INSERT", "Record created successfully")
}

// Update synthesizes an UPDATE for the sentence and executes it. The
// statement must carry a WHERE clause scoped to the user or it is rejected
// without execution.
func (m *MutationHandler) Update(ctx context.Context, sentence string, userID int64) *models.HandlerResult {
	schemaDesc, err := m.store.SchemaDescription(ctx)
	if err != nil {
		return mutationError(err)
	}

	prompt := fmt.Sprintf(`You are a SQL generator for PostgreSQL. Generate a single UPDATE statement.
You only speak in SQL code without extra characters or explanations.

Database Schema:
%s

RULES:
1. Generate exactly one UPDATE statement
2. The WHERE clause MUST include user_id = {{USER_ID}} (always use this exact placeholder)
3. Never update rows belonging to other users
4. Return ONLY the SQL, no explanations

USER REQUEST: "%s"

SQL:`, schemaDesc, enhanceForHandler(sentence, models.IntentUpdate))

	return m.synthesizeAndRun(ctx, prompt, userID, "UPDATE", "Record updated successfully")
}

func (m *MutationHandler) synthesizeAndRun(ctx context.Context, prompt string, userID int64, wantVerb, successMsg string) *models.HandlerResult {
	result, err := m.engine.GenerateSync(ctx, prompt)
	if err != nil {
		return mutationError(fmt.Errorf("sql synthesis: %w", err))
	}

	sql := CleanSQL(result.Response)
	if sql == "" {
		return mutationError(fmt.Errorf("sql synthesis: engine returned no SQL"))
	}
	sql, _ = bindUserID(sql, userID)
	if !strings.HasPrefix(strings.ToUpper(sql), wantVerb) {
		return &models.HandlerResult{
			Status:  models.StatusError,
			SQL:     sql,
			Message: fmt.Sprintf("Generated SQL is not a %s statement; refusing to execute.", wantVerb),
		}
	}
	if err := ensureUserScope(sql, wantVerb, userID); err != nil {
		return &models.HandlerResult{
			Status:  models.StatusError,
			SQL:     sql,
			Message: err.Error(),
		}
	}

	execResult, err := m.store.Execute(ctx, sql)
	if err != nil {
		return &models.HandlerResult{
			Status:  models.StatusError,
			SQL:     sql,
			Message: fmt.Sprintf("I encountered an error while processing your request: %v", err),
		}
	}

	msg := successMsg
	if execResult.Message != "" {
		msg = execResult.Message
	}
	return &models.HandlerResult{
		Status:  models.StatusComplete,
		Answer:  successMsg + ".",
		SQL:     sql,
		Message: msg,
	}
}

// ensureUserScope rejects mutations that do not reference the caller's user
// id. UPDATEs additionally require a WHERE clause so a synthesis slip can
// never touch the whole table.
func ensureUserScope(sql, verb string, userID int64) error {
	upper := strings.ToUpper(sql)
	idLiteral := strconv.FormatInt(userID, 10)

	if verb == "UPDATE" && !strings.Contains(upper, "WHERE") {
		return fmt.Errorf("generated UPDATE has no WHERE clause; refusing to execute")
	}
	if !strings.Contains(sql, idLiteral) {
		return fmt.Errorf("generated %s is not scoped to the current user; refusing to execute", verb)
	}
	return nil
}

func mutationError(err error) *models.HandlerResult {
	return &models.HandlerResult{
		Status:  models.StatusError,
		Message: fmt.Sprintf("I encountered an error while processing your request: %v", err),
	}
}
