package bigquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
)

// MockRunRepository is a mock implementation of RunRepository
type MockRunRepository struct {
	StartParsingRunFunc   func(ctx context.Context, row *ParsingRunRow) error
	InsertModelOutputFunc func(ctx context.Context, row *ModelOutputRow) error
	FinishParsingRunFunc  func(ctx context.Context, parsingRunID string, update *RunUpdate) error
	ListRecentRunsFunc    func(ctx context.Context, since civil.Date, limit int) ([]*ParsingRunRow, error)
}

func (m *MockRunRepository) StartParsingRun(ctx context.Context, row *ParsingRunRow) error {
	if m.StartParsingRunFunc != nil {
		return m.StartParsingRunFunc(ctx, row)
	}
	return nil
}

func (m *MockRunRepository) InsertModelOutput(ctx context.Context, row *ModelOutputRow) error {
	if m.InsertModelOutputFunc != nil {
		return m.InsertModelOutputFunc(ctx, row)
	}
	return nil
}

func (m *MockRunRepository) FinishParsingRun(ctx context.Context, parsingRunID string, update *RunUpdate) error {
	if m.FinishParsingRunFunc != nil {
		return m.FinishParsingRunFunc(ctx, parsingRunID, update)
	}
	return nil
}

func (m *MockRunRepository) ListRecentRuns(ctx context.Context, since civil.Date, limit int) ([]*ParsingRunRow, error) {
	if m.ListRecentRunsFunc != nil {
		return m.ListRecentRunsFunc(ctx, since, limit)
	}
	return nil, nil
}

func fixedClock() time.Time {
	return time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC)
}

func TestRecorder_StartRun(t *testing.T) {
	var got *ParsingRunRow
	repo := &MockRunRepository{
		StartParsingRunFunc: func(ctx context.Context, row *ParsingRunRow) error {
			got = row
			return nil
		},
	}
	r := NewRecorder(repo, "gemini-test")
	r.now = fixedClock

	id, err := r.StartRun(context.Background(), "april.pdf", 3)
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if id == "" || got.ParsingRunID != id {
		t.Errorf("run id = %q, row id = %q", id, got.ParsingRunID)
	}
	if got.Status != "RUNNING" || got.TotalChunks != 3 || got.DocumentName != "april.pdf" {
		t.Errorf("row = %+v", got)
	}
	if got.ModelName != "gemini-test" || got.ParserType != pipeline.DefaultParserType {
		t.Errorf("model/parser = %q/%q", got.ModelName, got.ParserType)
	}
	if !got.StartedTS.Equal(fixedClock()) {
		t.Errorf("started_ts = %v", got.StartedTS)
	}
}

func TestRecorder_StartRunError(t *testing.T) {
	repo := &MockRunRepository{
		StartParsingRunFunc: func(ctx context.Context, row *ParsingRunRow) error {
			return errors.New("dataset not found")
		},
	}
	r := NewRecorder(repo, "")

	if _, err := r.StartRun(context.Background(), "a.pdf", 1); err == nil {
		t.Fatal("StartRun() error = nil, want repository error")
	}
	if r.modelName != pipeline.DefaultModelName {
		t.Errorf("default model = %q", r.modelName)
	}
}

func TestRecorder_RecordChunkOutput(t *testing.T) {
	var got *ModelOutputRow
	repo := &MockRunRepository{
		InsertModelOutputFunc: func(ctx context.Context, row *ModelOutputRow) error {
			got = row
			return nil
		},
	}
	r := NewRecorder(repo, "gemini-test")
	r.now = fixedClock

	c := chunker.Chunk{Index: 2, FirstPage: 3, LastPage: 4}
	if err := r.RecordChunkOutput(context.Background(), "run-1", c, `{"transactions":[]}`); err != nil {
		t.Fatalf("RecordChunkOutput() error = %v", err)
	}
	if got.ParsingRunID != "run-1" || got.ChunkIndex != 2 || got.FirstPage != 3 || got.LastPage != 4 {
		t.Errorf("row = %+v", got)
	}
	if got.RawText != `{"transactions":[]}` {
		t.Errorf("raw text = %q", got.RawText)
	}
}

func TestRecorder_FinishRun(t *testing.T) {
	tests := []struct {
		name       string
		outcome    pipeline.RunOutcome
		wantStatus string
		wantErrMsg string
	}{
		{
			name:       "clean run",
			outcome:    pipeline.RunOutcome{Transactions: 12},
			wantStatus: "SUCCESS",
		},
		{
			name:       "skipped chunks",
			outcome:    pipeline.RunOutcome{Transactions: 4, Warnings: []string{"Chunk 2 skipped"}},
			wantStatus: "PARTIAL",
		},
		{
			name:       "cancelled",
			outcome:    pipeline.RunOutcome{Err: context.Canceled},
			wantStatus: "FAILED",
			wantErrMsg: "context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *RunUpdate
			repo := &MockRunRepository{
				FinishParsingRunFunc: func(ctx context.Context, id string, update *RunUpdate) error {
					if id != "run-9" {
						t.Errorf("run id = %q", id)
					}
					got = update
					return nil
				},
			}
			r := NewRecorder(repo, "m")
			r.now = fixedClock

			if err := r.FinishRun(context.Background(), "run-9", tt.outcome); err != nil {
				t.Fatalf("FinishRun() error = %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.ErrorMessage != tt.wantErrMsg {
				t.Errorf("error message = %q, want %q", got.ErrorMessage, tt.wantErrMsg)
			}
			if got.WarningsCount != len(tt.outcome.Warnings) {
				t.Errorf("warnings count = %d", got.WarningsCount)
			}
			if !got.FinishedTS.Equal(fixedClock()) {
				t.Errorf("finished_ts = %v", got.FinishedTS)
			}
		})
	}
}
