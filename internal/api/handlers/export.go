package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vhsolanki8600/bank-to-tally/internal/api/middleware"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/tabular"
	"github.com/vhsolanki8600/bank-to-tally/internal/voucher"
)

const xlsxContentType = tabular.ContentType

// ExportHandler renders transactions for download.
type ExportHandler struct {
	defaults  domain.ExportOptions
	maxUpload int64
}

// NewExportHandler creates an export handler. defaults apply when a request
// carries no options.
func NewExportHandler(defaults domain.ExportOptions, maxUpload int64) *ExportHandler {
	return &ExportHandler{defaults: defaults, maxUpload: maxUpload}
}

type exportRequest struct {
	Transactions []domain.Transaction  `json:"transactions"`
	Options      *domain.ExportOptions `json:"options,omitempty"`
}

// Tally handles POST /api/export/tally
func (h *ExportHandler) Tally(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req exportRequest
	if err := decodeJSON(w, r, h.maxUpload, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := h.defaults
	if req.Options != nil {
		opts = *req.Options
	}
	if err := opts.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	n, err := voucher.Generate(&buf, req.Transactions, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render vouchers")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render vouchers")
		return
	}

	log.Info().
		Int("transactions", len(req.Transactions)).
		Int("vouchers", n).
		Msg("Tally export rendered")

	w.Header().Set("X-Voucher-Count", strconv.Itoa(n))
	writeAttachment(w, "application/xml; charset=utf-8", exportFilename("tally-vouchers", "xml"), buf.Bytes())
}

// XLSX handles POST /api/export/xlsx
func (h *ExportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, h.maxUpload, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var buf bytes.Buffer
	if err := tabular.WriteXLSX(&buf, req.Transactions); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to write spreadsheet")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to write spreadsheet")
		return
	}

	writeAttachment(w, xlsxContentType, exportFilename("transactions", "xlsx"), buf.Bytes())
}

func exportFilename(base, ext string) string {
	return fmt.Sprintf("%s-%s.%s", base, time.Now().Format("20060102-150405"), ext)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
