package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	infraBQ "github.com/vhsolanki8600/bank-to-tally/internal/infra/bigquery"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

type extractCmd struct {
	file   string
	gcsURI string
	pages  int
	ndjson bool
	record bool
}

func (*extractCmd) Name() string     { return "extract" }
func (*extractCmd) Synopsis() string { return "extract transactions from a statement PDF, image or text file" }
func (*extractCmd) Usage() string {
	return `extract (-file <path> | -gcs-uri gs://bucket/object) [-pages N] [-ndjson] [-record]

  Sends the statement to the model chunk by chunk. With -ndjson every event is
  written to stdout as it happens; otherwise the final result is printed as JSON.
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Path to the statement file.")
	f.StringVar(&c.gcsURI, "gcs-uri", "", "GCS URI of the statement.")
	f.IntVar(&c.pages, "pages", 0, "Pages per chunk (defaults to PAGES_PER_CHUNK).")
	f.BoolVar(&c.ndjson, "ndjson", false, "Stream progress events as NDJSON.")
	f.BoolVar(&c.record, "record", false, "Record the run in BigQuery (needs GCP_PROJECT_ID).")
}

func (c *extractCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := a.cfg.RequireExtraction(); err != nil {
		a.log.Error().Err(err).Msg("Extraction is not configured")
		return subcommands.ExitUsageError
	}

	name, data, err := readSource(ctx, c.file, c.gcsURI)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to read statement")
		return subcommands.ExitUsageError
	}
	doc, err := document.Open(name, data)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to open statement")
		return subcommands.ExitFailure
	}

	extractor, err := pipeline.NewGeminiExtractor(ctx, a.cfg.Gemini)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create extractor")
		return subcommands.ExitFailure
	}

	var opts []pipeline.Option
	if c.record {
		if a.cfg.GCP.ProjectID == "" {
			a.log.Error().Msg("-record needs GCP_PROJECT_ID")
			return subcommands.ExitUsageError
		}
		repo, err := infraBQ.NewBigQueryRunRepository(ctx, a.cfg.GCP.ProjectID, a.cfg.GCP.Dataset)
		if err != nil {
			a.log.Error().Err(err).Msg("Failed to create run repository")
			return subcommands.ExitFailure
		}
		defer repo.Close()
		opts = append(opts, pipeline.WithRecorder(infraBQ.NewRecorder(repo, extractor.Model())))
	}

	orch, err := pipeline.New(extractor, a.normalizer, pipeline.ConfigFrom(a.cfg.Pipeline), opts...)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create orchestrator")
		return subcommands.ExitFailure
	}
	if c.pages > 0 {
		orch = orch.WithPagesPerChunk(c.pages)
	}

	a.log.Info().
		Str("document", doc.Name()).
		Int("pages", doc.PageCount()).
		Int("pages_per_chunk", orch.Config().PagesPerChunk).
		Msg("Starting extraction")

	sum := stream.NewSummary()
	var emit pipeline.Emitter = pipeline.EmitterFunc(func(_ context.Context, ev stream.Event) error {
		sum.Add(ev)
		if p, ok := ev.(stream.Progress); ok {
			a.log.Info().Msg(p.Message)
		}
		return nil
	})
	if c.ndjson {
		enc := stream.NewEncoder(os.Stdout, nil)
		emit = pipeline.EmitterFunc(func(ctx context.Context, ev stream.Event) error {
			sum.Add(ev)
			return enc.Emit(ctx, ev)
		})
	}

	if err := orch.Run(ctx, doc, emit); err != nil {
		a.log.Error().Err(err).Msg("Extraction aborted")
		return subcommands.ExitFailure
	}
	if sum.Err != "" {
		a.log.Error().Str("error", sum.Err).Msg("Extraction failed")
		return subcommands.ExitFailure
	}
	for _, w := range sum.Warnings {
		a.log.Warn().Msg(w)
	}

	if !c.ndjson {
		res := pipeline.Result{
			Transactions: sum.Transactions(),
			BankName:     sum.BankName,
			Warnings:     sum.Warnings,
		}
		if res.Warnings == nil {
			res.Warnings = []string{}
		}
		if err := writeJSON(os.Stdout, res); err != nil {
			a.log.Error().Err(err).Msg("Failed to write result")
			return subcommands.ExitFailure
		}
	}

	a.log.Info().Int("transactions", len(sum.Transactions())).Msg("Extraction completed")
	return subcommands.ExitSuccess
}
