package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/recovery"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

// chunkStep is a single step in the life of one chunk.
// Returning errChunkSkipped ends the chunk without failing the run.
type chunkStep interface {
	execute(ctx context.Context, state *chunkState) error
}

// chunkState holds the shared state across the steps of one chunk.
type chunkState struct {
	doc          document.Document
	chunk        chunker.Chunk
	run          *runState
	payload      document.Payload
	raw          string
	recovered    recovery.Result
	transactions []domain.Transaction
	skipped      bool
}

// chunkSteps lists the steps in order. A nil emit skips the streaming step.
func (o *Orchestrator) chunkSteps(emit Emitter) []chunkStep {
	steps := []chunkStep{
		sliceStep{},
		dispatchStep{o: o, emit: emit},
		storeOutputStep{recorder: o.recorder},
		recoverStep{},
		normalizeStep{o: o},
	}
	if emit != nil {
		steps = append(steps, emitStep{emit: emit})
	}
	return steps
}

func (o *Orchestrator) executeSteps(ctx context.Context, state *chunkState, steps []chunkStep) error {
	for _, s := range steps {
		err := s.execute(ctx, state)
		if errors.Is(err, errChunkSkipped) {
			state.skipped = true
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Step 1: sliceStep materialises the chunk as a self-contained payload.
type sliceStep struct{}

func (sliceStep) execute(ctx context.Context, state *chunkState) error {
	payload, err := state.doc.Slice(state.chunk)
	if err != nil {
		state.run.warn(fmt.Sprintf("Chunk %d (pages %s) skipped: %v", state.chunk.Index, state.chunk.Label(), err))
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("chunk", state.chunk.Index).Msg("could not slice chunk")
		return errChunkSkipped
	}
	state.payload = payload
	return nil
}

// Step 2: dispatchStep calls the extractor. Rate limits wait for the fixed
// backoff and retry without limit; other failures retry up to MaxRetries.
type dispatchStep struct {
	o    *Orchestrator
	emit Emitter
}

func (s dispatchStep) execute(ctx context.Context, state *chunkState) error {
	c := state.chunk
	log := logger.FromContext(ctx).With().
		Int("chunk", c.Index).
		Int("total_chunks", state.run.total).
		Int("first_page", c.FirstPage).
		Int("last_page", c.LastPage).
		Logger()

	req := ExtractRequest{
		DocumentName: state.doc.Name(),
		Chunk:        c,
		TotalChunks:  state.run.total,
		Payload:      state.payload,
	}

	failures := 0
	attempt := 0
	for {
		attempt++
		log.Debug().Int("attempt", attempt).Msg("dispatching chunk")

		raw, err := s.o.extractor.Extract(ctx, req)
		if err == nil {
			state.raw = raw
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if IsRateLimited(err) {
			wait := s.o.cfg.RateLimitBackoff
			log.Warn().Err(err).Dur("backoff", wait).Msg("rate limited, waiting before retrying chunk")
			if s.emit != nil {
				if emitErr := s.emit.Emit(ctx, stream.Progress{
					Message: fmt.Sprintf("Rate limit reached. Waiting %s before retrying pages %s", formatWait(wait), c.Label()),
					Current: c.Index,
					Total:   state.run.total,
				}); emitErr != nil {
					return emitErr
				}
			}
			if err := s.o.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		failures++
		if failures > s.o.cfg.MaxRetries {
			skip := &skipError{attempts: failures, err: err}
			log.Error().Err(err).Int("attempts", failures).Msg("skipping chunk")
			state.run.warn(fmt.Sprintf("Chunk %d (pages %s) skipped: %v", c.Index, c.Label(), skip))
			return errChunkSkipped
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("extraction failed, retrying chunk")
		if err := s.o.sleep(ctx, s.o.cfg.RetryDelay); err != nil {
			return err
		}
	}
}

// Step 3: storeOutputStep keeps the raw model text in the audit trail.
type storeOutputStep struct {
	recorder RunRecorder
}

func (s storeOutputStep) execute(ctx context.Context, state *chunkState) error {
	if state.run.runID == "" {
		return nil
	}
	if err := s.recorder.RecordChunkOutput(ctx, state.run.runID, state.chunk, state.raw); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("chunk", state.chunk.Index).Msg("failed to record model output")
	}
	return nil
}

// Step 4: recoverStep pulls the candidate object out of the raw text.
type recoverStep struct{}

func (recoverStep) execute(ctx context.Context, state *chunkState) error {
	state.recovered = recovery.Recover(state.raw)
	state.run.detectBank(state.recovered.BankName)

	log := logger.FromContext(ctx)
	ev := log.Debug()
	if state.recovered.Strategy == "" {
		ev = log.Warn()
	}
	ev.Int("chunk", state.chunk.Index).
		Str("strategy", state.recovered.Strategy).
		Int("candidates", len(state.recovered.Transactions)).
		Msg("recovered model output")
	return nil
}

// Step 5: normalizeStep maps candidates to transactions.
type normalizeStep struct {
	o *Orchestrator
}

func (s normalizeStep) execute(ctx context.Context, state *chunkState) error {
	txs, dropped := s.o.normalizer.NormalizeAll(state.recovered.Transactions, state.run.bankName)
	state.transactions = txs
	state.run.transactions += len(txs)

	log := logger.FromContext(ctx)
	log.Info().
		Int("chunk", state.chunk.Index).
		Int("transactions", len(txs)).
		Int("dropped", dropped).
		Msg("chunk processed")
	return nil
}

// Step 6: emitStep streams the chunk's transactions. Empty chunks send nothing.
type emitStep struct {
	emit Emitter
}

func (s emitStep) execute(ctx context.Context, state *chunkState) error {
	if len(state.transactions) == 0 {
		return nil
	}
	return s.emit.Emit(ctx, stream.Transactions{Chunk: state.chunk.Index, Transactions: state.transactions})
}
