package pipeline

import (
	"context"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

// Extractor is the extraction capability: given one chunk, return raw text
// believed to contain JSON. This interface enables mocking of model calls.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (string, error)
}

// Emitter receives stream events in order. stream.Encoder implements it.
type Emitter interface {
	Emit(ctx context.Context, ev stream.Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev stream.Event) error

func (f EmitterFunc) Emit(ctx context.Context, ev stream.Event) error {
	return f(ctx, ev)
}

// RunRecorder keeps an audit trail of extraction runs and raw model output.
// Recorder failures are logged and never stop a run.
type RunRecorder interface {
	// StartRun registers a run and returns its id.
	StartRun(ctx context.Context, documentName string, totalChunks int) (string, error)

	// RecordChunkOutput stores the raw text returned for one chunk.
	RecordChunkOutput(ctx context.Context, runID string, chunk chunker.Chunk, rawText string) error

	// FinishRun stores the outcome of a run.
	FinishRun(ctx context.Context, runID string, outcome RunOutcome) error
}

type nopRecorder struct{}

func (nopRecorder) StartRun(context.Context, string, int) (string, error) { return "", nil }
func (nopRecorder) RecordChunkOutput(context.Context, string, chunker.Chunk, string) error {
	return nil
}
func (nopRecorder) FinishRun(context.Context, string, RunOutcome) error { return nil }
