package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// StartParsingRunWithClient inserts a new row into parsing_runs with the
// status carried by row. Uses DML INSERT so the later UPDATE is not blocked
// by the streaming buffer.
func StartParsingRunWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *ParsingRunRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s (
			parsing_run_id,
			document_name,
			parser_type,
			model_name,
			status,
			total_chunks,
			started_ts
		)
		VALUES (
			@parsing_run_id,
			@document_name,
			@parser_type,
			@model_name,
			@status,
			@total_chunks,
			@started_ts
		)
	`, tableName(client, dataset, parsingRunsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "parsing_run_id", Value: row.ParsingRunID},
		{Name: "document_name", Value: row.DocumentName},
		{Name: "parser_type", Value: row.ParserType},
		{Name: "model_name", Value: row.ModelName},
		{Name: "status", Value: row.Status},
		{Name: "total_chunks", Value: row.TotalChunks},
		{Name: "started_ts", Value: row.StartedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("StartParsingRun: %w", err)
	}
	return nil
}

// FinishParsingRunWithClient sets status, warnings_count, error_message and finished_ts.
func FinishParsingRunWithClient(ctx context.Context, client *bigquery.Client, dataset, parsingRunID string, update *RunUpdate) error {
	errMsg := update.ErrorMessage
	if len(errMsg) > maxErrorMessageLen {
		errMsg = errMsg[:maxErrorMessageLen]
	}
	finished := update.FinishedTS
	if finished.IsZero() {
		finished = time.Now()
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    warnings_count = @warnings_count,
		    error_message = @error_message,
		    finished_ts = @finished_ts
		WHERE parsing_run_id = @parsing_run_id
	`, tableName(client, dataset, parsingRunsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: update.Status},
		{Name: "warnings_count", Value: update.WarningsCount},
		{Name: "error_message", Value: errMsg},
		{Name: "finished_ts", Value: finished},
		{Name: "parsing_run_id", Value: parsingRunID},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("FinishParsingRun: %w", err)
	}
	return nil
}

// ListRecentRunsWithClient returns runs started on or after since, newest first.
func ListRecentRunsWithClient(ctx context.Context, client *bigquery.Client, dataset string, since civil.Date, limit int) ([]*ParsingRunRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			parsing_run_id,
			document_name,
			parser_type,
			model_name,
			status,
			total_chunks,
			warnings_count,
			error_message,
			started_ts,
			finished_ts
		FROM %s
		WHERE DATE(started_ts) >= @since
		ORDER BY started_ts DESC
		LIMIT @limit
	`, tableName(client, dataset, parsingRunsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "since", Value: since},
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentRunsWithClient: reading query: %w", err)
	}

	var runs []*ParsingRunRow
	for {
		var row ParsingRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentRunsWithClient: iterating: %w", err)
		}
		runs = append(runs, &row)
	}

	return runs, nil
}
