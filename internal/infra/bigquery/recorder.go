package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
)

// Recorder writes the extraction audit trail through a RunRepository.
// It implements pipeline.RunRecorder.
type Recorder struct {
	repo       RunRepository
	modelName  string
	parserType string
	now        func() time.Time
}

var _ pipeline.RunRecorder = (*Recorder)(nil)

// NewRecorder creates a Recorder tagging every row with modelName.
func NewRecorder(repo RunRepository, modelName string) *Recorder {
	if modelName == "" {
		modelName = pipeline.DefaultModelName
	}
	return &Recorder{
		repo:       repo,
		modelName:  modelName,
		parserType: pipeline.DefaultParserType,
		now:        time.Now,
	}
}

func (r *Recorder) StartRun(ctx context.Context, documentName string, totalChunks int) (string, error) {
	row := &ParsingRunRow{
		ParsingRunID: uuid.NewString(),
		DocumentName: documentName,
		ParserType:   r.parserType,
		ModelName:    r.modelName,
		Status:       statusRunning,
		TotalChunks:  int64(totalChunks),
		StartedTS:    r.now(),
	}
	if err := r.repo.StartParsingRun(ctx, row); err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return row.ParsingRunID, nil
}

func (r *Recorder) RecordChunkOutput(ctx context.Context, runID string, chunk chunker.Chunk, rawText string) error {
	row := &ModelOutputRow{
		OutputID:     uuid.NewString(),
		ParsingRunID: runID,
		ChunkIndex:   int64(chunk.Index),
		FirstPage:    int64(chunk.FirstPage),
		LastPage:     int64(chunk.LastPage),
		ModelName:    r.modelName,
		RawText:      rawText,
		CreatedTS:    r.now(),
	}
	if err := r.repo.InsertModelOutput(ctx, row); err != nil {
		return fmt.Errorf("RecordChunkOutput: %w", err)
	}
	return nil
}

func (r *Recorder) FinishRun(ctx context.Context, runID string, outcome pipeline.RunOutcome) error {
	update := &RunUpdate{
		Status:        RunStatus(outcome),
		WarningsCount: len(outcome.Warnings),
		FinishedTS:    r.now(),
	}
	if outcome.Err != nil {
		update.ErrorMessage = outcome.Err.Error()
	}
	if err := r.repo.FinishParsingRun(ctx, runID, update); err != nil {
		return fmt.Errorf("FinishRun: %w", err)
	}
	return nil
}

// RunStatus maps an outcome to the status stored in parsing_runs.
func RunStatus(outcome pipeline.RunOutcome) string {
	switch {
	case outcome.Err != nil:
		return statusFailed
	case len(outcome.Warnings) > 0:
		return statusPartial
	default:
		return statusSucceeded
	}
}

// ListRecentRuns returns runs started within the last days days, newest first.
func (r *Recorder) ListRecentRuns(ctx context.Context, days, limit int) ([]*ParsingRunRow, error) {
	since := civil.DateOf(r.now().AddDate(0, 0, -days))
	runs, err := r.repo.ListRecentRuns(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecentRuns: %w", err)
	}
	return runs, nil
}
