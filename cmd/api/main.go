package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/vhsolanki8600/bank-to-tally/internal/api/handlers"
	"github.com/vhsolanki8600/bank-to-tally/internal/api/middleware"
	"github.com/vhsolanki8600/bank-to-tally/internal/config"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcs"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcsuploader"
	infraBQ "github.com/vhsolanki8600/bank-to-tally/internal/infra/bigquery"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags
	var (
		port  = flag.String("port", cfg.Server.Port, "HTTP server port (or set PORT env)")
		rules = flag.String("rules", cfg.Export.RulesPath, "YAML file with default export options (or set EXPORT_RULES env)")
	)
	flag.Parse()
	cfg.Export.RulesPath = *rules

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	exportDefaults, err := cfg.ExportOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load export options")
	}

	normalizer := newNormalizer(cfg)

	var storage gcs.StorageService
	if cfg.GCP.Bucket != "" {
		svc, err := gcsuploader.NewGCSStorageService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer svc.Close()
		storage = svc
	} else {
		log.Warn().Msg("No GCS bucket configured - gcs_uri extraction is disabled")
	}

	orch, closeOrch := newOrchestrator(ctx, cfg, normalizer, log)
	defer closeOrch()

	results := cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL)

	mux := handlers.NewRouter(handlers.Handlers{
		Extract:      handlers.NewExtractHandler(orch, storage, results, cfg.Server.MaxUploadBytes),
		Transactions: handlers.NewTransactionsHandler(normalizer, cfg.Server.MaxUploadBytes),
		Export:       handlers.NewExportHandler(exportDefaults, cfg.Server.MaxUploadBytes),
	})

	// Apply middleware
	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID,
		middleware.CORS,
		middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	)

	// The extract stream clears its own write deadline.
	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func newNormalizer(cfg *config.Config) *normalize.Normalizer {
	dir, _ := normalize.ParseDirection(cfg.Normalize.UnknownDirection)
	return normalize.New(normalize.Options{
		DefaultCurrency:  cfg.Normalize.DefaultCurrency,
		UnknownDirection: dir,
	})
}

// newOrchestrator returns nil when no extraction credential is configured so
// the other endpoints keep working.
func newOrchestrator(ctx context.Context, cfg *config.Config, normalizer *normalize.Normalizer, log zerolog.Logger) (*pipeline.Orchestrator, func()) {
	noop := func() {}
	if err := cfg.RequireExtraction(); err != nil {
		log.Warn().Err(err).Msg("Extraction endpoints are disabled")
		return nil, noop
	}

	extractor, err := pipeline.NewGeminiExtractor(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	var opts []pipeline.Option
	closer := noop
	if cfg.GCP.ProjectID != "" {
		repo, err := infraBQ.NewBigQueryRunRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create run repository")
		}
		opts = append(opts, pipeline.WithRecorder(infraBQ.NewRecorder(repo, extractor.Model())))
		closer = func() { _ = repo.Close() }
	}

	orch, err := pipeline.New(extractor, normalizer, pipeline.ConfigFrom(cfg.Pipeline), opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create orchestrator")
	}
	return orch, closer
}
