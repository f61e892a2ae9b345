package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	bq "github.com/vhsolanki8600/bank-to-tally/internal/bigquery"
)

// Re-export interface from shared package
type RunRepository = bq.RunRepository

// DefaultDataset is used when no dataset is configured.
const DefaultDataset = "bank_to_tally"

// BigQueryRunRepository is the concrete implementation of RunRepository
// that interacts with BigQuery. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQueryRunRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryRunRepository creates a repository writing to projectID.dataset.
func NewBigQueryRunRepository(ctx context.Context, projectID, dataset string) (*BigQueryRunRepository, error) {
	if projectID == "" {
		return nil, errors.New("NewBigQueryRunRepository: project id is required")
	}
	if dataset == "" {
		dataset = DefaultDataset
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRepository: creating client: %w", err)
	}
	return &BigQueryRunRepository{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryRunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// StartParsingRun delegates to StartParsingRunWithClient with the shared client.
func (r *BigQueryRunRepository) StartParsingRun(ctx context.Context, row *ParsingRunRow) error {
	return StartParsingRunWithClient(ctx, r.client, r.dataset, row)
}

// InsertModelOutput delegates to InsertModelOutputWithClient with the shared client.
func (r *BigQueryRunRepository) InsertModelOutput(ctx context.Context, row *ModelOutputRow) error {
	return InsertModelOutputWithClient(ctx, r.client, r.dataset, row)
}

// FinishParsingRun delegates to FinishParsingRunWithClient with the shared client.
func (r *BigQueryRunRepository) FinishParsingRun(ctx context.Context, parsingRunID string, update *RunUpdate) error {
	return FinishParsingRunWithClient(ctx, r.client, r.dataset, parsingRunID, update)
}

// ListRecentRuns delegates to ListRecentRunsWithClient with the shared client.
func (r *BigQueryRunRepository) ListRecentRuns(ctx context.Context, since civil.Date, limit int) ([]*ParsingRunRow, error) {
	return ListRecentRunsWithClient(ctx, r.client, r.dataset, since, limit)
}

// tableName returns the fully qualified, back-quoted table name.
func tableName(client *bigquery.Client, dataset, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", client.Project(), dataset, table)
}

// runDML runs a parameterised statement and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
