package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/vhsolanki8600/bank-to-tally/internal/tabular"
)

type tabularCmd struct {
	file string
	bank string
	out  string
}

func (*tabularCmd) Name() string     { return "tabular" }
func (*tabularCmd) Synopsis() string { return "parse a CSV or XLSX statement without the model" }
func (*tabularCmd) Usage() string {
	return `tabular -file <statement.csv|statement.xlsx> [-bank <name>] [-out <path>]
`
}

func (c *tabularCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Path to the CSV or XLSX statement.")
	f.StringVar(&c.bank, "bank", "", "Bank name to stamp on every transaction.")
	f.StringVar(&c.out, "out", "", "Output path for the JSON transactions (default stdout).")
}

func (c *tabularCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.file == "" {
		a.log.Error().Msg("-file is required")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(c.file)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to read statement")
		return subcommands.ExitFailure
	}
	res, err := tabular.Parse(filepath.Base(c.file), data, a.normalizer, c.bank)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to parse statement")
		return subcommands.ExitFailure
	}

	out, err := openOutput(c.out)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to open output")
		return subcommands.ExitFailure
	}
	defer out.Close()
	if err := writeJSON(out, res.Transactions); err != nil {
		a.log.Error().Err(err).Msg("Failed to write transactions")
		return subcommands.ExitFailure
	}

	a.log.Info().
		Int("transactions", len(res.Transactions)).
		Int("header_row", res.HeaderRow).
		Int("dropped", res.Dropped).
		Msg("Statement parsed")
	return subcommands.ExitSuccess
}
