package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

// MockExtractor is a mock implementation of pipeline.Extractor
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, req pipeline.ExtractRequest) (string, error)

	mu       sync.Mutex
	requests []pipeline.ExtractRequest
}

func (m *MockExtractor) Extract(ctx context.Context, req pipeline.ExtractRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, req)
	}
	return `{"transactions":[]}`, nil
}

func (m *MockExtractor) Calls() []pipeline.ExtractRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.ExtractRequest(nil), m.requests...)
}

// MockRunRecorder is a mock implementation of pipeline.RunRecorder
type MockRunRecorder struct {
	StartRunFunc          func(ctx context.Context, documentName string, totalChunks int) (string, error)
	RecordChunkOutputFunc func(ctx context.Context, runID string, chunk chunker.Chunk, rawText string) error
	FinishRunFunc         func(ctx context.Context, runID string, outcome pipeline.RunOutcome) error
}

func (m *MockRunRecorder) StartRun(ctx context.Context, documentName string, totalChunks int) (string, error) {
	if m.StartRunFunc != nil {
		return m.StartRunFunc(ctx, documentName, totalChunks)
	}
	return "run-id", nil
}

func (m *MockRunRecorder) RecordChunkOutput(ctx context.Context, runID string, chunk chunker.Chunk, rawText string) error {
	if m.RecordChunkOutputFunc != nil {
		return m.RecordChunkOutputFunc(ctx, runID, chunk, rawText)
	}
	return nil
}

func (m *MockRunRecorder) FinishRun(ctx context.Context, runID string, outcome pipeline.RunOutcome) error {
	if m.FinishRunFunc != nil {
		return m.FinishRunFunc(ctx, runID, outcome)
	}
	return nil
}

// recordingEmitter collects every event in order.
type recordingEmitter struct {
	events []stream.Event
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, ev stream.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) types() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type()
	}
	return out
}

// recordingSleeper returns immediately and remembers what it was asked to wait.
type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

// brokenDocument reports no pages or panics on demand.
type brokenDocument struct {
	pages int
	panic bool
}

func (b brokenDocument) Name() string     { return "broken.pdf" }
func (b brokenDocument) MIMEType() string { return document.MIMEPDF }
func (b brokenDocument) PageCount() int {
	if b.panic {
		panic("page tree is corrupt")
	}
	return b.pages
}
func (b brokenDocument) Slice(chunker.Chunk) (document.Payload, error) {
	return document.Payload{}, document.ErrCorruptDocument
}
