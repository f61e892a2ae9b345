package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"github.com/vhsolanki8600/bank-to-tally/internal/gcs"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcsuploader"
)

type uploadCmd struct {
	file   string
	prefix string
}

func (*uploadCmd) Name() string     { return "upload" }
func (*uploadCmd) Synopsis() string { return "upload a statement to the GCS bucket" }
func (*uploadCmd) Usage() string {
	return `upload -file <path> [-prefix statements]

  Stores the file under GCS_BUCKET as prefix/YYYY/MM/DD/<name> and prints its
  gs:// URI, ready for extract -gcs-uri.
`
}

func (c *uploadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Path to the file to upload.")
	f.StringVar(&c.prefix, "prefix", "statements", "Object prefix inside the bucket.")
}

func (c *uploadCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.file == "" {
		a.log.Error().Msg("-file is required")
		return subcommands.ExitUsageError
	}
	if a.cfg.GCP.Bucket == "" {
		a.log.Error().Msg("GCS_BUCKET is not set")
		return subcommands.ExitUsageError
	}
	if _, err := os.Stat(c.file); err != nil {
		a.log.Error().Err(err).Msg("Cannot read file")
		return subcommands.ExitUsageError
	}

	svc, err := gcsuploader.NewGCSStorageService(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to create storage client")
		return subcommands.ExitFailure
	}
	defer svc.Close()

	object := gcs.ObjectName(c.prefix, filepath.Base(c.file), time.Now())
	if err := svc.UploadFile(ctx, a.cfg.GCP.Bucket, object, c.file); err != nil {
		a.log.Error().Err(err).Msg("Upload failed")
		return subcommands.ExitFailure
	}

	uri := gcs.URI(a.cfg.GCP.Bucket, object)
	a.log.Info().Str("gcs_uri", uri).Msg("File uploaded")
	fmt.Println(uri)
	return subcommands.ExitSuccess
}
