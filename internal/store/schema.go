package store

import (
	"context"
	"fmt"
	"strings"
)

// usageHints documents the purpose of each queryable view and the column
// conventions synthesis must follow. Appended verbatim to every schema
// description so the engine sees the same contract on every call.
const usageHints = `
VIEW PURPOSES AND EXACT USAGE:

llm_user_profile - User personal and business information:
- business_name: "what company do I work for", "am I in a business"
- role_name: "what is my role", "am I an admin"
- display_name: "what is my name", "who am I"

llm_business_hierarchy - Business user relationships:
- admin_display_name, admin_user_email: "who is my admin", "who do I report to"
- display_name, email: "who works under me", "my team members"

llm_transaction_summary - MOST IMPORTANT FOR SPENDING QUESTIONS:
- amount: negative = expense, positive = income
- absolute_amount: always positive
- category_name, category_kind: transaction category ('expense' or 'income')
- created_at: transaction date (use for month filtering)
- month, year: alternative date fields
- user_id: filter by user
- USE FOR: "how much did I spend", "what are my expenses", "show my transactions"

llm_financial_overview - Financial summary data:
- budgeted_amount, actual_income, actual_expenses: budget comparisons
- USE FOR: "how am I doing vs budget", "budget performance"

llm_budget_overview - Budget planning:
- budgeted_amount vs actual_expenses/actual_income per category and month
- USE FOR: "what's my budget", "am I over budget"

IMPORTANT COLUMN NOTES:
1. 'amount': negative values are expenses, positive values are income
2. 'absolute_amount': always positive
3. 'created_at' in llm_transaction_summary is the actual transaction date

QUERY FILTERING EXAMPLES:
- Current month expenses: WHERE amount < 0 AND DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
- Specific month: WHERE EXTRACT(MONTH FROM created_at) = 3 AND EXTRACT(YEAR FROM created_at) = 2024
- By category: WHERE category_name = 'Food & Dining'
`

// SchemaDescription reads live column metadata for the llm_% views and
// renders it with per-column usage hints. Loaded per request; immutable text.
func (l *Ledger) SchemaDescription(ctx context.Context) (string, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name LIKE 'llm_%'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return "", fmt.Errorf("schema metadata: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("LEDGER VIEWS (USE THESE INSTEAD OF BASE TABLES):\n\n")

	currentView := ""
	for rows.Next() {
		var table, column, dataType, nullable string
		if err := rows.Scan(&table, &column, &dataType, &nullable); err != nil {
			return "", fmt.Errorf("schema metadata: %w", err)
		}
		if table != currentView {
			if currentView != "" {
				b.WriteString("\n")
			}
			currentView = table
			fmt.Fprintf(&b, "VIEW: %s\nColumns:\n", table)
		}
		suffix := ""
		if nullable == "YES" {
			suffix = " (nullable)"
		}
		fmt.Fprintf(&b, "  - %s (%s)%s\n", column, dataType, suffix)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("schema metadata: %w", err)
	}

	b.WriteString(usageHints)
	return b.String(), nil
}
