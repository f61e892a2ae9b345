// Package bigquery holds the audit-trail row types and the repository
// contract shared by the BigQuery implementation and its callers.
package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Parsing run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCESS"
	// StatusPartial marks a run that finished with skipped chunks.
	StatusPartial = "PARTIAL"
	StatusFailed  = "FAILED"
)

// RunRepository provides an interface for audit-trail database operations.
// This interface enables mocking and testing of the recorder.
type RunRepository interface {
	// StartParsingRun inserts a new parsing run with status=RUNNING.
	StartParsingRun(ctx context.Context, row *ParsingRunRow) error

	// InsertModelOutput stores the raw text returned for one chunk.
	InsertModelOutput(ctx context.Context, row *ModelOutputRow) error

	// FinishParsingRun sets the final status, counters and finished_ts.
	FinishParsingRun(ctx context.Context, parsingRunID string, update *RunUpdate) error

	// ListRecentRuns returns runs started on or after since, newest first.
	ListRecentRuns(ctx context.Context, since civil.Date, limit int) ([]*ParsingRunRow, error)
}

// ParsingRunRow represents a parsing run record in BigQuery.
type ParsingRunRow struct {
	ParsingRunID string `bigquery:"parsing_run_id" json:"parsing_run_id"`
	DocumentName string `bigquery:"document_name" json:"document_name"`

	ParserType string `bigquery:"parser_type" json:"parser_type"`
	ModelName  string `bigquery:"model_name" json:"model_name"`

	Status        string              `bigquery:"status" json:"status"`
	TotalChunks   int64               `bigquery:"total_chunks" json:"total_chunks"`
	WarningsCount bigquery.NullInt64  `bigquery:"warnings_count" json:"warnings_count"`
	ErrorMessage  bigquery.NullString `bigquery:"error_message" json:"error_message"`

	StartedTS  time.Time              `bigquery:"started_ts" json:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts" json:"finished_ts"`
}

// ModelOutputRow represents the raw model text for one chunk.
type ModelOutputRow struct {
	OutputID     string `bigquery:"output_id"`
	ParsingRunID string `bigquery:"parsing_run_id"`

	ChunkIndex int64 `bigquery:"chunk_index"`
	FirstPage  int64 `bigquery:"first_page"`
	LastPage   int64 `bigquery:"last_page"`

	ModelName string `bigquery:"model_name"`
	RawText   string `bigquery:"raw_text"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// RunUpdate is the final state written when a run ends.
type RunUpdate struct {
	Status        string
	WarningsCount int
	ErrorMessage  string
	FinishedTS    time.Time
}
