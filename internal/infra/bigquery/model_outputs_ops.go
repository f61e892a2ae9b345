package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const modelOutputsTable = "model_outputs"

// InsertModelOutputWithClient inserts a single ModelOutputRow into model_outputs
// using the provided BigQuery client. Uses DML INSERT to avoid streaming buffer issues.
func InsertModelOutputWithClient(ctx context.Context, client *bigquery.Client, dataset string, row *ModelOutputRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			output_id, parsing_run_id,
			chunk_index, first_page, last_page,
			model_name, raw_text, created_ts
		)
		VALUES (
			@output_id, @parsing_run_id,
			@chunk_index, @first_page, @last_page,
			@model_name, @raw_text, @created_ts
		)
	`, tableName(client, dataset, modelOutputsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "parsing_run_id", Value: row.ParsingRunID},
		{Name: "chunk_index", Value: row.ChunkIndex},
		{Name: "first_page", Value: row.FirstPage},
		{Name: "last_page", Value: row.LastPage},
		{Name: "model_name", Value: row.ModelName},
		{Name: "raw_text", Value: row.RawText},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}
