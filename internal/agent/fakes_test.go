package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/inference"
	"github.com/ledgerflow/ledgerflow/internal/models"
)

// fakeEngine answers prompts from a rule list in order of registration. A
// nil rule response means the call errors.
type fakeEngine struct {
	rules []engineRule
	calls []string
}

type engineRule struct {
	match    string
	response string
	err      error
}

func (e *fakeEngine) on(match, response string) *fakeEngine {
	e.rules = append(e.rules, engineRule{match: match, response: response})
	return e
}

func (e *fakeEngine) failOn(match string) *fakeEngine {
	e.rules = append(e.rules, engineRule{match: match, err: fmt.Errorf("engine unavailable")})
	return e
}

func (e *fakeEngine) GenerateSync(_ context.Context, prompt string) (*inference.Result, error) {
	e.calls = append(e.calls, prompt)
	for _, r := range e.rules {
		if strings.Contains(prompt, r.match) {
			if r.err != nil {
				return nil, r.err
			}
			return &inference.Result{Response: r.response}, nil
		}
	}
	return nil, fmt.Errorf("no rule for prompt")
}

func (e *fakeEngine) callCount() int { return len(e.calls) }

// failingEngine errors on every call. Used where the engine must not be
// consulted at all.
type failingEngine struct{ calls int }

func (e *failingEngine) GenerateSync(context.Context, string) (*inference.Result, error) {
	e.calls++
	return nil, fmt.Errorf("engine must not be called")
}

// fakeStore records executed SQL and answers from canned results.
type fakeStore struct {
	role     string
	roleErr  error
	schema   string
	results  map[string]*models.QueryResult
	fallback *models.QueryResult
	execErr  error
	executed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		role:     "owner",
		schema:   "VIEW: llm_transaction_summary\nColumns: user_id, amount, category_name, created_at",
		results:  make(map[string]*models.QueryResult),
		fallback: &models.QueryResult{Columns: []string{"amount"}, Rows: [][]any{}, RowCount: 0},
	}
}

func (s *fakeStore) Execute(_ context.Context, sql string) (*models.QueryResult, error) {
	s.executed = append(s.executed, sql)
	if s.execErr != nil {
		return nil, s.execErr
	}
	if res, ok := s.results[sql]; ok {
		return res, nil
	}
	return s.fallback, nil
}

func (s *fakeStore) SchemaDescription(context.Context) (string, error) {
	return s.schema, nil
}

func (s *fakeStore) UserRole(context.Context, int64) (string, error) {
	return s.role, s.roleErr
}
