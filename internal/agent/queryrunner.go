package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/memory"
	"github.com/ledgerflow/ledgerflow/internal/models"
)

// AccessDeniedSQL is the sentinel SQL value returned when the access gate
// rejects a caller before synthesis.
const AccessDeniedSQL = "ACCESS_DENIED"

const subUserDeniedMessage = "Natural-language access is not available for sub-users. " +
	"Please contact your business administrator."

// QueryRunner turns a VIEW sentence into SQL, executes it, and extracts a
// user-facing answer from the result rows.
type QueryRunner struct {
	engine   Engine
	store    Store
	enhancer *Enhancer
	context  *memory.Context
}

// NewQueryRunner wires a query runner. context may be nil.
func NewQueryRunner(engine Engine, store Store, context *memory.Context) *QueryRunner {
	return &QueryRunner{
		engine:   engine,
		store:    store,
		enhancer: NewEnhancer(engine),
		context:  context,
	}
}

// Run processes a natural-language view request end to end. Synthesis and
// execution failures surface as an ERROR result; only the access gate stops
// the request before any engine or store call.
func (r *QueryRunner) Run(ctx context.Context, sentence string, userID int64) *models.HandlerResult {
	role, err := r.store.UserRole(ctx, userID)
	if err != nil {
		return &models.HandlerResult{
			Status:  models.StatusAccessDenied,
			Answer:  "Error checking user permissions.",
			SQL:     AccessDeniedSQL,
			Message: "Error checking user permissions.",
		}
	}
	if role == "business_subuser" {
		return &models.HandlerResult{
			Status:  models.StatusAccessDenied,
			Answer:  subUserDeniedMessage,
			SQL:     AccessDeniedSQL,
			Message: subUserDeniedMessage,
		}
	}

	schemaDesc, err := r.store.SchemaDescription(ctx)
	if err != nil {
		return &models.HandlerResult{
			Status:  models.StatusError,
			Message: fmt.Sprintf("I encountered an error while processing your query: %v", err),
		}
	}

	enhanced := r.enhancer.Enhance(ctx, sentence, schemaDesc)

	sql, err := r.synthesizeSQL(ctx, enhanced, schemaDesc, userID)
	if err != nil {
		return &models.HandlerResult{
			Status:  models.StatusError,
			Message: fmt.Sprintf("I encountered an error while processing your query: %v", err),
		}
	}

	result, err := r.store.Execute(ctx, sql)
	if err != nil {
		log.Printf("agent: query execution failed: %v", err)
		return &models.HandlerResult{
			Status:  models.StatusError,
			SQL:     sql,
			Message: fmt.Sprintf("I encountered an error while processing your query: %v", err),
		}
	}

	answer := r.extractAnswer(ctx, sentence, result)
	r.storeContext(answer, result)

	return &models.HandlerResult{
		Status:  models.StatusComplete,
		Answer:  answer,
		SQL:     sql,
		Message: "Query executed successfully",
	}
}

// synthesizeSQL asks the engine for a single SQL statement and reduces the
// raw response to pure SQL. The engine only ever sees the {{USER_ID}}
// placeholder; the real id is bound afterwards by trusted code.
func (r *QueryRunner) synthesizeSQL(ctx context.Context, enhanced, schemaDesc string, userID int64) (string, error) {
	prompt := fmt.Sprintf(`You are a SQL query generator for PostgreSQL using ledger views.
You only speak in SQL code without extra characters or explanations.

Database Schema:
%s

CRITICAL RULES FOR FINANCIAL QUERIES:
1. For "spent", "spend", "expenses", "cost" questions use llm_transaction_summary
2. For "income", "earned", "revenue" questions use llm_transaction_summary
3. For "budget" questions use llm_budget_overview or llm_financial_overview
4. Filter by user: WHERE user_id = {{USER_ID}} (always use this exact placeholder)
5. For expenses: WHERE amount < 0
6. For income: WHERE amount > 0
7. For "this month": WHERE DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
8. Return ONLY the SQL query, no explanations

SPECIFIC QUERY PATTERNS:
- "how much did I spend" -> SELECT SUM(amount) AS total_spent FROM llm_transaction_summary WHERE user_id = {{USER_ID}} AND amount < 0
- "how much did I spend this month" -> SELECT SUM(amount) AS total_spent FROM llm_transaction_summary WHERE user_id = {{USER_ID}} AND amount < 0 AND DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
- "show my expenses" -> SELECT amount, category_name, created_at FROM llm_transaction_summary WHERE user_id = {{USER_ID}} AND amount < 0 ORDER BY created_at DESC
- "what is my income" -> SELECT SUM(amount) AS total_income FROM llm_transaction_summary WHERE user_id = {{USER_ID}} AND amount > 0
- "what business am I in" -> SELECT business_name FROM llm_user_profile WHERE user_id = {{USER_ID}}

USER QUESTION: "%s"

SQL Query:`,
		schemaDesc, enhanced)

	result, err := r.engine.GenerateSync(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("sql synthesis: %w", err)
	}

	sql := CleanSQL(result.Response)
	if sql == "" {
		return "", fmt.Errorf("sql synthesis: engine returned no SQL")
	}
	bound, _ := bindUserID(sql, userID)
	return bound, nil
}

// extractAnswer prompts the engine to phrase the result rows as a sentence,
// scrubs leftover placeholder artifacts, and falls back to deterministic
// formatting if the engine call fails.
func (r *QueryRunner) extractAnswer(ctx context.Context, sentence string, result *models.QueryResult) string {
	dataSummary := formatForExtraction(result)

	prompt := fmt.Sprintf(`ORIGINAL USER QUESTION: "%s"

EXACT DATA RETRIEVED FROM DATABASE:
%s

CRITICAL RULES - MUST FOLLOW:
1. USE EXACT VALUES FROM THE DATA ABOVE - never use placeholders like $[amount] or [name]
2. If no dollar amounts in data, don't mention dollar amounts
3. If data shows "NO DATA FOUND", say nothing was found
4. Use the calculated totals exactly as shown
5. Never invent numbers or names that aren't in the data above

RESPONSE FORMAT EXAMPLES:
- CORRECT: "Your total expenses were $1,234.56"
- CORRECT: "No transactions found for last month"
- WRONG: "Your total expenses were $[insert amount here]"
- WRONG: "You spent approximately $[amount] based on the data"

FINAL RESPONSE (be direct and use exact values):`,
		sentence, dataSummary)

	engineResult, err := r.engine.GenerateSync(ctx, prompt)
	if err != nil {
		log.Printf("agent: answer extraction failed, using direct formatting: %v", err)
		return directResponse(result, sentence)
	}

	answer := strings.TrimSpace(engineResult.Response)
	if answer == "" {
		return directResponse(result, sentence)
	}

	scrubbed := ScrubArtifacts(answer)
	if scrubbed != answer {
		log.Printf("agent: template artifacts detected and scrubbed in response")
	}
	return scrubbed
}

func (r *QueryRunner) storeContext(answer string, result *models.QueryResult) {
	if r.context == nil {
		return
	}
	for label, value := range extractContextValues(answer, result) {
		r.context.Set(label, value)
	}
}
