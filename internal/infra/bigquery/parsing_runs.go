package bigquery

import bq "github.com/vhsolanki8600/bank-to-tally/internal/bigquery"

type (
	ParsingRunRow  = bq.ParsingRunRow
	ModelOutputRow = bq.ModelOutputRow
	RunUpdate      = bq.RunUpdate
)

const parsingRunsTable = "parsing_runs"

// maxErrorMessageLen caps error_message so one bad run cannot bloat the table.
const maxErrorMessageLen = 2000

const (
	statusRunning   = bq.StatusRunning
	statusSucceeded = bq.StatusSucceeded
	statusPartial   = bq.StatusPartial
	statusFailed    = bq.StatusFailed
)
