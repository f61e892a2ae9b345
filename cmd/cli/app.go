package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vhsolanki8600/bank-to-tally/internal/config"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcs"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcsuploader"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
	"github.com/vhsolanki8600/bank-to-tally/internal/tabular"
)

// app carries what every command needs after configuration is loaded.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	normalizer *normalize.Normalizer
}

func newApp(ctx context.Context) (context.Context, *app, error) {
	cfg := config.Load()
	log := logger.NewConsole(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return ctx, nil, err
	}

	dir, _ := normalize.ParseDirection(cfg.Normalize.UnknownDirection)
	a := &app{
		cfg: cfg,
		log: log,
		normalizer: normalize.New(normalize.Options{
			DefaultCurrency:  cfg.Normalize.DefaultCurrency,
			UnknownDirection: dir,
		}),
	}
	return logger.WithContext(ctx, log), a, nil
}

// readSource loads a local file or a gs:// object.
func readSource(ctx context.Context, file, gcsURI string) (string, []byte, error) {
	switch {
	case file != "" && gcsURI != "":
		return "", nil, fmt.Errorf("use either -file or -gcs-uri, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", file, err)
		}
		return filepath.Base(file), data, nil
	case gcsURI != "":
		if _, _, err := gcs.ParseURI(gcsURI); err != nil {
			return "", nil, err
		}
		svc, err := gcsuploader.NewGCSStorageService(ctx)
		if err != nil {
			return "", nil, err
		}
		defer svc.Close()
		data, err := svc.FetchFromGCS(ctx, gcsURI)
		if err != nil {
			return "", nil, err
		}
		return svc.ExtractFilenameFromGCSURI(gcsURI), data, nil
	default:
		return "", nil, fmt.Errorf("-file or -gcs-uri is required")
	}
}

// readTransactions loads transactions from a JSON array, an NDJSON event
// stream, or a CSV/XLSX statement.
func (a *app) readTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		sum, err := stream.Collect(ctx, f)
		if err != nil {
			return nil, err
		}
		return sum.Transactions(), nil
	case ".csv", ".xlsx":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		res, err := tabular.Parse(filepath.Base(path), data, a.normalizer, "")
		if err != nil {
			return nil, err
		}
		return res.Transactions, nil
	default:
		var txs []domain.Transaction
		if err := json.NewDecoder(f).Decode(&txs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return txs, nil
	}
}

// openOutput returns stdout for "" or "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
