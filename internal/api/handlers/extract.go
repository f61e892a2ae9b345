package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/vhsolanki8600/bank-to-tally/internal/api/middleware"
	"github.com/vhsolanki8600/bank-to-tally/internal/config"
	"github.com/vhsolanki8600/bank-to-tally/internal/document"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/gcs"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/pipeline"
	"github.com/vhsolanki8600/bank-to-tally/internal/stream"
)

const multipartMemory = 32 << 20

// ExtractHandler serves statement extraction endpoints.
type ExtractHandler struct {
	orch      *pipeline.Orchestrator
	storage   gcs.StorageService
	results   *cache.Cache
	maxUpload int64
}

// NewExtractHandler creates an extract handler. orch may be nil when no
// extraction credential is configured; storage may be nil when GCS is not
// configured; results may be nil to disable replay.
func NewExtractHandler(orch *pipeline.Orchestrator, storage gcs.StorageService, results *cache.Cache, maxUpload int64) *ExtractHandler {
	return &ExtractHandler{orch: orch, storage: storage, results: results, maxUpload: maxUpload}
}

// Stream handles POST /api/extract. The response is an NDJSON event stream;
// failures after the stream starts arrive as an error event.
func (h *ExtractHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.orch == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, config.ErrMissingAPIKey.Error())
		return
	}

	orch := h.orch
	if raw := r.URL.Query().Get("pages_per_chunk"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "pages_per_chunk must be a positive integer")
			return
		}
		orch = orch.WithPagesPerChunk(k)
	}

	name, data, status, err := h.readDocument(w, r)
	if err != nil {
		middleware.WriteError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	// Long documents outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn().Err(err).Msg("could not clear write deadline")
	}
	enc := stream.NewEncoder(w, rc.Flush)

	key := resultKey(data, orch.Config().PagesPerChunk)
	if h.results != nil {
		if cached, ok := h.results.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			log.Info().Str("document", name).Msg("replaying cached extraction")
			for _, ev := range cached.([]stream.Event) {
				if err := enc.Emit(ctx, withFreshIDs(ev)); err != nil {
					return
				}
			}
			return
		}
	}

	doc, err := document.Open(name, data)
	if err != nil {
		log.Warn().Err(err).Str("document", name).Msg("could not open document")
		_ = enc.Emit(ctx, stream.Error{Message: err.Error()})
		return
	}

	rec := &replayRecorder{next: enc}
	if err := orch.Run(ctx, doc, rec); err != nil {
		log.Info().Err(err).Str("document", name).Msg("extraction stream ended early")
		return
	}
	if h.results != nil && rec.cacheable() {
		h.results.Set(key, rec.events, cache.DefaultExpiration)
	}
}

// Image handles POST /api/extract/image with a synchronous JSON result.
func (h *ExtractHandler) Image(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.orch == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, config.ErrMissingAPIKey.Error())
		return
	}

	name, data, status, err := h.readDocument(w, r)
	if err != nil {
		middleware.WriteError(w, status, err.Error())
		return
	}

	doc, err := document.Open(name, data)
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !strings.HasPrefix(doc.MIMEType(), "image/") {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "expected an image upload")
		return
	}

	res, err := h.orch.ExtractOnce(ctx, doc)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("document", name).Msg("image extraction failed")
		middleware.WriteError(w, http.StatusBadGateway, "Extraction failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// readDocument loads the upload from the multipart "file" field or from the
// gcs_uri query parameter.
func (h *ExtractHandler) readDocument(w http.ResponseWriter, r *http.Request) (string, []byte, int, error) {
	if uri := r.URL.Query().Get("gcs_uri"); uri != "" {
		if h.storage == nil {
			return "", nil, http.StatusServiceUnavailable, errors.New("GCS is not configured")
		}
		if _, _, err := gcs.ParseURI(uri); err != nil {
			return "", nil, http.StatusBadRequest, err
		}
		data, err := h.storage.FetchFromGCS(r.Context(), uri)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("gcs_uri", uri).Msg("Failed to fetch document")
			return "", nil, http.StatusBadGateway, errors.New("failed to fetch document from GCS")
		}
		return h.storage.ExtractFilenameFromGCSURI(uri), data, http.StatusOK, nil
	}

	return readUpload(w, r, h.maxUpload)
}

// readUpload reads the multipart "file" field.
func readUpload(w http.ResponseWriter, r *http.Request, maxUpload int64) (string, []byte, int, error) {
	if maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return "", nil, http.StatusBadRequest, errors.New("expected a multipart form with a file field")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, http.StatusBadRequest, document.ErrEmptyDocument
	}
	return header.Filename, data, http.StatusOK, nil
}

// resultKey identifies a document by content and chunk size.
func resultKey(data []byte, pagesPerChunk int) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(pagesPerChunk)
}

// replayRecorder forwards events and keeps them for the result cache.
type replayRecorder struct {
	next   pipeline.Emitter
	events []stream.Event
}

func (r *replayRecorder) Emit(ctx context.Context, ev stream.Event) error {
	if err := r.next.Emit(ctx, ev); err != nil {
		return err
	}
	r.events = append(r.events, ev)
	return nil
}

// withFreshIDs copies a cached transactions event so a replayed run never
// hands out an id that an earlier submission already received.
func withFreshIDs(ev stream.Event) stream.Event {
	batch, ok := ev.(stream.Transactions)
	if !ok {
		return ev
	}
	txs := make([]domain.Transaction, len(batch.Transactions))
	for i, t := range batch.Transactions {
		t.ID = uuid.NewString()
		txs[i] = t
	}
	batch.Transactions = txs
	return batch
}

// cacheable is true for runs that completed without skipped chunks.
func (r *replayRecorder) cacheable() bool {
	if len(r.events) == 0 {
		return false
	}
	done, ok := r.events[len(r.events)-1].(stream.Complete)
	return ok && len(done.Warnings) == 0
}
