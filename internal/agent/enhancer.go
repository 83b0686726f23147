package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// categoryMappings maps colloquial terms to the canonical category names the
// ledger actually stores. Included in every enhancement prompt.
const categoryMappings = `CATEGORY NAME MAPPING:

INCOME CATEGORIES (category_kind = 'income'):
- "salary", "job", "paycheck" -> "Salary"
- "freelance", "contract", "side job" -> "Freelance Income"
- "investments", "dividends", "stocks" -> "Investment Income"
- "business", "venture" -> "Business Income"

EXPENSE CATEGORIES (category_kind = 'expense'):
- "food", "groceries", "eating out" -> "Food & Dining"
- "rent", "mortgage", "housing" -> "Housing"
- "transport", "car", "gas", "commute" -> "Transportation"
- "utilities", "electricity", "water", "internet" -> "Utilities"
- "entertainment", "fun", "hobbies" -> "Entertainment"

CRITICAL: always use exact category names from the database, not approximations.`

// Enhancer rewrites a vague user sentence into a schema-grounded one.
type Enhancer struct {
	engine Engine
}

// NewEnhancer creates a prompt enhancer over the given engine.
func NewEnhancer(engine Engine) *Enhancer {
	return &Enhancer{engine: engine}
}

// Enhance rewrites sentence using exact database vocabulary. Enhancement is
// best-effort and fail-open: any engine failure returns the sentence
// unchanged.
func (e *Enhancer) Enhance(ctx context.Context, sentence, schemaDesc string) string {
	prompt := fmt.Sprintf(`You are enhancing a financial query for SQL generation.

DATABASE SCHEMA:
%s

%s

ENHANCEMENT RULES:
1. Map vague terms to exact database category names
2. Specify category_kind filters when relevant
3. Reference the appropriate views
4. Make the query precise for accurate data retrieval
5. DO NOT include response formatting instructions

USER QUESTION: "%s"

Enhanced question (focus on data retrieval, not response formatting):`,
		schemaDesc, categoryMappings, sentence)

	result, err := e.engine.GenerateSync(ctx, prompt)
	if err != nil {
		log.Printf("agent: enhancement failed, using original sentence: %v", err)
		return sentence
	}

	enhanced := strings.TrimSpace(result.Response)
	if enhanced == "" {
		return sentence
	}
	return enhanced
}
