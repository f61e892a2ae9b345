package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/vhsolanki8600/bank-to-tally/internal/gcs"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcsuploader"
	"github.com/vhsolanki8600/bank-to-tally/internal/tabular"
	"github.com/vhsolanki8600/bank-to-tally/internal/voucher"
)

type exportCmd struct {
	file   string
	rules  string
	out    string
	upload string
	xlsx   bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write transactions as a Tally voucher import or an XLSX sheet" }
func (*exportCmd) Usage() string {
	return `export -file <transactions> [-rules <rules.yaml>] [-out <path>] [-upload gs://bucket/prefix] [-xlsx]

  Builds one voucher per transaction using the ledger rules and writes the
  Tally import XML. With -xlsx a spreadsheet is written instead. With -upload
  the result is also stored in GCS under prefix/YYYY/MM/DD/.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Transactions (JSON array, NDJSON events, CSV or XLSX).")
	f.StringVar(&c.rules, "rules", "", "YAML file with ledger rules and ledger names (defaults to EXPORT_RULES).")
	f.StringVar(&c.out, "out", "", "Output path (default stdout).")
	f.StringVar(&c.upload, "upload", "", "Also upload the export to this GCS bucket and prefix.")
	f.BoolVar(&c.xlsx, "xlsx", false, "Write an XLSX sheet instead of Tally XML.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.file == "" {
		a.log.Error().Msg("-file is required")
		return subcommands.ExitUsageError
	}

	if c.rules != "" {
		a.cfg.Export.RulesPath = c.rules
	}
	opts, err := a.cfg.ExportOptions()
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to load rules")
		return subcommands.ExitUsageError
	}

	txs, err := a.readTransactions(ctx, c.file)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to read transactions")
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	ext, contentType := ".xml", "application/xml"
	if c.xlsx {
		ext, contentType = ".xlsx", tabular.ContentType
		err = tabular.WriteXLSX(&buf, txs)
	} else {
		var n int
		n, err = voucher.Generate(&buf, txs, opts)
		a.log.Info().Int("vouchers", n).Msg("Vouchers built")
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to build export")
		return subcommands.ExitFailure
	}

	out, err := openOutput(c.out)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to open output")
		return subcommands.ExitFailure
	}
	defer out.Close()
	if _, err := out.Write(buf.Bytes()); err != nil {
		a.log.Error().Err(err).Msg("Failed to write export")
		return subcommands.ExitFailure
	}

	if c.upload != "" {
		uri, err := uploadExport(ctx, c.upload, c.file, ext, contentType, buf.Bytes())
		if err != nil {
			a.log.Error().Err(err).Msg("Failed to upload export")
			return subcommands.ExitFailure
		}
		a.log.Info().Str("gcs_uri", uri).Msg("Export uploaded")
	}
	return subcommands.ExitSuccess
}

// uploadExport stores data under target, which is gs://bucket or gs://bucket/prefix.
func uploadExport(ctx context.Context, target, source, ext, contentType string, data []byte) (string, error) {
	bucket, prefix, err := splitTarget(target)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ext

	svc, err := gcsuploader.NewGCSStorageService(ctx)
	if err != nil {
		return "", err
	}
	defer svc.Close()
	return svc.UploadBytes(ctx, bucket, gcs.ObjectName(prefix, base, time.Now()), contentType, data)
}

// splitTarget accepts a bare bucket URI as well as bucket/prefix.
func splitTarget(target string) (bucket, prefix string, err error) {
	trimmed := strings.TrimSuffix(target, "/")
	if bucket, prefix, err = gcs.ParseURI(trimmed); err == nil {
		return bucket, prefix, nil
	}
	rest, ok := strings.CutPrefix(trimmed, "gs://")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", "", fmt.Errorf("splitTarget: %q: %w", target, gcs.ErrInvalidURI)
	}
	return rest, "", nil
}
