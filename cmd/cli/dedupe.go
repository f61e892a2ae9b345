package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vhsolanki8600/bank-to-tally/internal/dedupe"
)

type dedupeCmd struct {
	file     string
	collapse bool
	out      string
}

func (*dedupeCmd) Name() string     { return "dedupe" }
func (*dedupeCmd) Synopsis() string { return "report or remove duplicate transactions" }
func (*dedupeCmd) Usage() string {
	return `dedupe -file <transactions.json|events.ndjson|statement.csv> [-collapse] [-out <path>]

  Without -collapse, lists each group of duplicates by position. With -collapse,
  writes the transactions with only the first of each group kept.
`
}

func (c *dedupeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Transactions to check.")
	f.BoolVar(&c.collapse, "collapse", false, "Write the de-duplicated transactions instead of a report.")
	f.StringVar(&c.out, "out", "", "Output path (default stdout).")
}

func (c *dedupeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.file == "" {
		a.log.Error().Msg("-file is required")
		return subcommands.ExitUsageError
	}

	txs, err := a.readTransactions(ctx, c.file)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to read transactions")
		return subcommands.ExitFailure
	}

	out, err := openOutput(c.out)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to open output")
		return subcommands.ExitFailure
	}
	defer out.Close()

	groups := dedupe.Groups(txs)
	if groups == nil {
		groups = [][]int{}
	}
	if c.collapse {
		kept := dedupe.Collapse(txs)
		err = writeJSON(out, kept)
		a.log.Info().Int("before", len(txs)).Int("after", len(kept)).Msg("Duplicates removed")
	} else {
		err = writeJSON(out, groups)
		a.log.Info().Int("groups", len(groups)).Msg("Duplicate groups found")
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to write output")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
