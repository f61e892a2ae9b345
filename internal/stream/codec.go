package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
)

// ContentType is the media type of an event stream.
const ContentType = "application/x-ndjson"

// Marshal renders an event as a single JSON object with a "type" field.
func Marshal(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case Progress:
		return json.Marshal(struct {
			Type string `json:"type"`
			Progress
		}{TypeProgress, ev})
	case Transactions:
		if ev.Transactions == nil {
			ev.Transactions = []domain.Transaction{}
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			Transactions
		}{TypeTransactions, ev})
	case Complete:
		if ev.Warnings == nil {
			ev.Warnings = []string{}
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			Complete
		}{TypeComplete, ev})
	case Error:
		return json.Marshal(struct {
			Type string `json:"type"`
			Error
		}{TypeError, ev})
	default:
		return nil, fmt.Errorf("Marshal: unsupported event %T", e)
	}
}

// Unmarshal decodes one line into its event variant.
func Unmarshal(line []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("Unmarshal: %w", err)
	}

	switch head.Type {
	case TypeProgress:
		var ev Progress
		err := json.Unmarshal(line, &ev)
		return ev, wrapUnmarshal(err)
	case TypeTransactions:
		var ev Transactions
		err := json.Unmarshal(line, &ev)
		return ev, wrapUnmarshal(err)
	case TypeComplete:
		var ev Complete
		err := json.Unmarshal(line, &ev)
		return ev, wrapUnmarshal(err)
	case TypeError:
		var ev Error
		err := json.Unmarshal(line, &ev)
		return ev, wrapUnmarshal(err)
	default:
		return nil, fmt.Errorf("Unmarshal: unknown event type %q", head.Type)
	}
}

func wrapUnmarshal(err error) error {
	if err != nil {
		return fmt.Errorf("Unmarshal: %w", err)
	}
	return nil
}

// Encoder writes events as newline-delimited JSON and flushes after each one.
type Encoder struct {
	mu    sync.Mutex
	w     io.Writer
	flush func() error
}

// NewEncoder wraps w. When flush is nil the writer's own Flush is used if it has one.
func NewEncoder(w io.Writer, flush func() error) *Encoder {
	if flush == nil {
		switch f := w.(type) {
		case http.Flusher:
			flush = func() error { f.Flush(); return nil }
		case interface{ Flush() error }:
			flush = f.Flush
		}
	}
	return &Encoder{w: w, flush: flush}
}

// Emit writes one event. It fails fast once ctx is done.
func (e *Encoder) Emit(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := Marshal(ev)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(line); err != nil {
		return fmt.Errorf("Emit: write %s event: %w", ev.Type(), err)
	}
	if e.flush != nil {
		if err := e.flush(); err != nil {
			return fmt.Errorf("Emit: flush: %w", err)
		}
	}
	return nil
}

// Decoder reads events from an NDJSON stream. Lines split across reads are
// reassembled; lines that do not decode are logged and skipped.
type Decoder struct {
	r    *bufio.Reader
	log  zerolog.Logger
	line int
}

// NewDecoder logs skipped lines through the logger carried by ctx.
func NewDecoder(ctx context.Context, r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), log: logger.FromContext(ctx)}
}

// Next returns the next event, or io.EOF when the stream ends.
func (d *Decoder) Next() (Event, error) {
	for {
		raw, readErr := d.r.ReadBytes('\n')
		if len(raw) > 0 {
			d.line++
			if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
				ev, err := Unmarshal(trimmed)
				if err == nil {
					return ev, nil
				}
				d.log.Warn().Err(err).Int("line", d.line).Msg("skipping unreadable stream line")
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("Next: read: %w", readErr)
		}
	}
}
