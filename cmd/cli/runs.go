package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	infraBQ "github.com/vhsolanki8600/bank-to-tally/internal/infra/bigquery"
)

type runsCmd struct {
	days  int
	limit int
	json  bool
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list recent extraction runs from the audit trail" }
func (*runsCmd) Usage() string {
	return `runs [-days 7] [-limit 20] [-json]
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 7, "How many days back to look.")
	f.IntVar(&c.limit, "limit", 20, "Maximum number of runs.")
	f.BoolVar(&c.json, "json", false, "Print runs as JSON.")
}

func (c *runsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if a.cfg.GCP.ProjectID == "" {
		a.log.Error().Msg("GCP_PROJECT_ID is not set")
		return subcommands.ExitUsageError
	}
	if c.days < 0 || c.limit < 1 {
		a.log.Error().Msg("-days must be >= 0 and -limit >= 1")
		return subcommands.ExitUsageError
	}

	repo, err := infraBQ.NewBigQueryRunRepository(ctx, a.cfg.GCP.ProjectID, a.cfg.GCP.Dataset)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create run repository")
		return subcommands.ExitFailure
	}
	defer repo.Close()

	runs, err := infraBQ.NewRecorder(repo, a.cfg.Gemini.Model).ListRecentRuns(ctx, c.days, c.limit)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to list runs")
		return subcommands.ExitFailure
	}

	if c.json {
		if err := writeJSON(os.Stdout, runs); err != nil {
			a.log.Error().Err(err).Msg("Failed to write runs")
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tCHUNKS\tWARNINGS\tDOCUMENT\tRUN ID")
	for _, r := range runs {
		warnings := "-"
		if r.WarningsCount.Valid {
			warnings = fmt.Sprint(r.WarningsCount.Int64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.StartedTS.Local().Format("2006-01-02 15:04"),
			r.Status, r.TotalChunks, warnings, r.DocumentName, r.ParsingRunID)
	}
	if err := tw.Flush(); err != nil {
		a.log.Error().Err(err).Msg("Failed to write runs")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
