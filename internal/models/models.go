package models

import "time"

// Intent is the classified goal of a user sentence.
type Intent string

const (
	IntentView    Intent = "VIEW"
	IntentCreate  Intent = "CREATE"
	IntentUpdate  Intent = "UPDATE"
	IntentDelete  Intent = "DELETE"
	IntentUnknown Intent = "UNKNOWN"
)

// Valid reports whether i is one of the four actionable intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentView, IntentCreate, IntentUpdate, IntentDelete:
		return true
	}
	return false
}

// ClassificationSource records which judge produced a classification.
type ClassificationSource string

const (
	SourceEngine   ClassificationSource = "engine"
	SourceKeyword  ClassificationSource = "keyword-fallback"
	SourceResolved ClassificationSource = "resolved"
)

// Classification is a single intent judgment. Ephemeral, never persisted.
type Classification struct {
	Intent     Intent               `json:"intent"`
	Confidence float64              `json:"confidence"`
	Source     ClassificationSource `json:"source"`
	Rationale  string               `json:"rationale,omitempty"`
}

// Handler status values shared across the pipeline.
const (
	StatusComplete        = "COMPLETE"
	StatusError           = "ERROR"
	StatusAccessDenied    = "ACCESS_DENIED"
	StatusConfirmRequired = "CONFIRM_REQUIRED"
	StatusCancelled       = "CANCELLED"
	StatusNotFound        = "NOT_FOUND"
	StatusNothingToDelete = "NOTHING_TO_DELETE"
	StatusHasPending      = "HAS_PENDING"
	StatusNone            = "NONE"
)

// QueryResult is the normalized outcome of executing one SQL statement.
// For reads RowCount == len(Rows); for writes Rows is empty and Message
// carries the affected-row summary.
type QueryResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int64    `json:"row_count"`
	Message  string   `json:"message,omitempty"`
}

// DeletePreview describes what a pending delete would remove.
type DeletePreview struct {
	RowCount int64  `json:"row_count"`
	Summary  string `json:"summary"`
}

// HandlerResult is the per-intent result payload inside an Envelope.
type HandlerResult struct {
	Status         string         `json:"status"`
	Answer         string         `json:"answer,omitempty"`
	SQL            string         `json:"sql,omitempty"`
	Message        string         `json:"message"`
	ConfirmationID string         `json:"confirmation_id,omitempty"`
	Preview        *DeletePreview `json:"preview,omitempty"`
}

// Envelope is the top-level result returned by the intent classifier.
type Envelope struct {
	Intent        Intent         `json:"intent"`
	Handler       string         `json:"handler"`
	Result        *HandlerResult `json:"result"`
	Confidence    float64        `json:"confidence"`
	OriginalQuery string         `json:"original_query"`
}

// PendingDelete is a staged, unexecuted delete awaiting confirmation.
// Lives only in process memory, keyed by ConfirmationID.
type PendingDelete struct {
	ConfirmationID string        `json:"confirmation_id"`
	UserID         int64         `json:"user_id"`
	OriginalQuery  string        `json:"original_query"`
	CandidateSQL   string        `json:"candidate_sql"`
	Preview        DeletePreview `json:"preview"`
	CreatedAt      time.Time     `json:"created_at"`
	SessionID      string        `json:"session_id,omitempty"`
}

// ConfirmOutcome is the contract of the delete-confirmation endpoint.
type ConfirmOutcome struct {
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	RowsDeleted    int64  `json:"rows_deleted"`
	ConfirmationID string `json:"confirmation_id"`
}

// PendingList summarizes a user's live pending deletes.
type PendingList struct {
	Status  string           `json:"status"`
	Count   int              `json:"pending_count"`
	Pending []*PendingDelete `json:"pending"`
}

// LogEntry is one appended prompt/response pair in the interaction log.
type LogEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}
