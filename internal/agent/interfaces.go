// Package agent implements the natural-language financial intent pipeline:
// intent classification, schema-aware SQL synthesis, answer extraction with
// anti-hallucination guards, and the confirmation-gated delete workflow.
package agent

import (
	"context"

	"github.com/ledgerflow/ledgerflow/internal/inference"
	"github.com/ledgerflow/ledgerflow/internal/models"
)

// Engine is the text-generation capability. Output carries no correctness
// guarantee; every caller must parse and validate it.
type Engine interface {
	GenerateSync(ctx context.Context, prompt string) (*inference.Result, error)
}

// Store is the relational capability the pipeline executes against.
type Store interface {
	// Execute runs one SQL statement with read/write transaction semantics.
	Execute(ctx context.Context, sql string) (*models.QueryResult, error)

	// SchemaDescription renders the queryable views with usage hints.
	SchemaDescription(ctx context.Context) (string, error)

	// UserRole resolves the role name for the access gate.
	UserRole(ctx context.Context, userID int64) (string, error)
}
