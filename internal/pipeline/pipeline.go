package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/config"
	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

// Config controls chunking, retries and pacing.
type Config struct {
	PagesPerChunk int
	// MaxRetries bounds retries after generic failures; rate limits do not count.
	MaxRetries       int
	RetryDelay       time.Duration
	RateLimitBackoff time.Duration
	// PacingDelay separates consecutive chunk calls. It is not applied after the last chunk.
	PacingDelay time.Duration
}

// ConfigFrom copies the pipeline section of the application config.
func ConfigFrom(c config.PipelineConfig) Config {
	return Config{
		PagesPerChunk:    c.PagesPerChunk,
		MaxRetries:       c.MaxRetries,
		RetryDelay:       c.RetryDelay,
		RateLimitBackoff: c.RateLimitBackoff,
		PacingDelay:      c.PacingDelay,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches an audit recorder.
func WithRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithSleeper replaces the wait used for pacing and backoff.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// Orchestrator drives chunks through extraction one at a time and streams
// what each chunk yields. A single Orchestrator may serve concurrent runs.
type Orchestrator struct {
	extractor  Extractor
	normalizer *normalize.Normalizer
	cfg        Config
	recorder   RunRecorder
	sleep      Sleeper
}

// New validates cfg and builds an Orchestrator.
func New(extractor Extractor, normalizer *normalize.Normalizer, cfg Config, opts ...Option) (*Orchestrator, error) {
	if extractor == nil {
		return nil, errors.New("New: extractor is required")
	}
	if normalizer == nil {
		return nil, errors.New("New: normalizer is required")
	}
	if cfg.PagesPerChunk < 1 {
		return nil, fmt.Errorf("New: %w (got %d)", chunker.ErrInvalidChunkSize, cfg.PagesPerChunk)
	}
	if cfg.MaxRetries < 0 || cfg.RetryDelay < 0 || cfg.RateLimitBackoff < 0 || cfg.PacingDelay < 0 {
		return nil, errors.New("New: retry counts and delays must not be negative")
	}

	o := &Orchestrator{
		extractor:  extractor,
		normalizer: normalizer,
		cfg:        cfg,
		recorder:   nopRecorder{},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Config returns the orchestrator's configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// WithPagesPerChunk returns a copy using a different chunk size. Values below
// one keep the configured size.
func (o *Orchestrator) WithPagesPerChunk(k int) *Orchestrator {
	if k < 1 || k == o.cfg.PagesPerChunk {
		return o
	}
	c := *o
	c.cfg.PagesPerChunk = k
	return &c
}

// runState is shared across the chunks of one run.
type runState struct {
	runID        string
	total        int
	warnings     []string
	bankName     string // first non-empty value wins
	transactions int
}

func (r *runState) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

func (r *runState) detectBank(name string) {
	if r.bankName == "" && name != "" {
		r.bankName = name
	}
}

// Run streams the extraction of doc to emit: a progress event per chunk, a
// transactions event per chunk that yielded records, then complete. Setup
// failures emit a single error event. Run returns early when ctx is cancelled
// or emit fails, without emitting anything further.
func (o *Orchestrator) Run(ctx context.Context, doc document.Document, emit Emitter) (err error) {
	log := logger.FromContext(ctx).With().Str("document", doc.Name()).Logger()
	ctx = logger.WithContext(ctx, log)

	chunks, err := o.plan(doc)
	if err != nil {
		log.Error().Err(err).Msg("extraction setup failed")
		if emitErr := emit.Emit(ctx, stream.Error{Message: err.Error()}); emitErr != nil {
			log.Warn().Err(emitErr).Msg("failed to emit error event")
		}
		return err
	}

	run := &runState{total: len(chunks)}
	run.runID = o.startRun(ctx, doc.Name(), len(chunks))
	defer func() {
		o.finishRun(ctx, run, err)
	}()

	log.Info().Int("total_chunks", len(chunks)).Int("pages", doc.PageCount()).Msg("starting extraction")

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			log.Info().Int("chunk", c.Index).Msg("extraction cancelled")
			return err
		}
		if err := o.processChunk(ctx, doc, c, run, emit); err != nil {
			return err
		}
		if i < len(chunks)-1 {
			if err := o.sleep(ctx, o.cfg.PacingDelay); err != nil {
				return err
			}
		}
	}

	log.Info().
		Int("transactions", run.transactions).
		Int("warnings", len(run.warnings)).
		Str("bank_name", run.bankName).
		Msg("extraction complete")

	return emit.Emit(ctx, stream.Complete{Warnings: run.warnings, BankName: run.bankName})
}

// ExtractOnce processes the whole document as a single unit with the same
// retry policy and returns the result synchronously.
func (o *Orchestrator) ExtractOnce(ctx context.Context, doc document.Document) (res *Result, err error) {
	log := logger.FromContext(ctx).With().Str("document", doc.Name()).Logger()
	ctx = logger.WithContext(ctx, log)

	if doc.PageCount() < 1 {
		return nil, fmt.Errorf("ExtractOnce: %s: %w", doc.Name(), document.ErrEmptyDocument)
	}

	run := &runState{total: 1}
	run.runID = o.startRun(ctx, doc.Name(), 1)
	defer func() {
		o.finishRun(ctx, run, err)
	}()

	state := &chunkState{
		doc:   doc,
		chunk: chunker.Whole(doc.PageCount()),
		run:   run,
	}
	if err := o.executeSteps(ctx, state, o.chunkSteps(nil)); err != nil {
		return nil, fmt.Errorf("ExtractOnce: %w", err)
	}
	if state.skipped {
		return nil, fmt.Errorf("ExtractOnce: %s", run.warnings[len(run.warnings)-1])
	}

	return &Result{
		Transactions: state.transactions,
		BankName:     run.bankName,
		Warnings:     append([]string{}, run.warnings...),
	}, nil
}

// plan is the setup phase; a panic here becomes an error.
func (o *Orchestrator) plan(doc document.Document) (chunks []chunker.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("plan: unexpected failure: %v", r)
		}
	}()

	pages := doc.PageCount()
	if pages < 1 {
		return nil, fmt.Errorf("plan: %s: %w", doc.Name(), document.ErrEmptyDocument)
	}
	chunks, err = chunker.Plan(pages, o.cfg.PagesPerChunk)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return chunks, nil
}

func (o *Orchestrator) processChunk(ctx context.Context, doc document.Document, c chunker.Chunk, run *runState, emit Emitter) error {
	if err := emit.Emit(ctx, stream.Progress{
		Message: fmt.Sprintf("Processing pages %s (chunk %d of %d)", c.Label(), c.Index, run.total),
		Current: c.Index,
		Total:   run.total,
	}); err != nil {
		return err
	}

	state := &chunkState{doc: doc, chunk: c, run: run}
	return o.executeSteps(ctx, state, o.chunkSteps(emit))
}

func (o *Orchestrator) startRun(ctx context.Context, name string, total int) string {
	id, err := o.recorder.StartRun(ctx, name, total)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("failed to record run start")
		return ""
	}
	return id
}

func (o *Orchestrator) finishRun(ctx context.Context, run *runState, runErr error) {
	if run.runID == "" {
		return
	}
	// The audit write outlives a cancelled request.
	ctx = context.WithoutCancel(ctx)
	outcome := RunOutcome{Transactions: run.transactions, Warnings: run.warnings, Err: runErr}
	if err := o.recorder.FinishRun(ctx, run.runID, outcome); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("run_id", run.runID).Msg("failed to record run outcome")
	}
}

func formatWait(d time.Duration) string {
	if d >= time.Second {
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	}
	return d.String()
}
