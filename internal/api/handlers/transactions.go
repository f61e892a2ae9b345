package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vhsolanki8600/bank-to-tally/internal/api/middleware"
	"github.com/vhsolanki8600/bank-to-tally/internal/dedupe"
	"github.com/vhsolanki8600/bank-to-tally/internal/domain"
	"github.com/vhsolanki8600/bank-to-tally/internal/logger"
	"github.com/vhsolanki8600/bank-to-tally/internal/normalize"
	"github.com/vhsolanki8600/bank-to-tally/internal/tabular"
)

// TransactionsHandler handles transaction-related endpoints that need no
// extraction service.
type TransactionsHandler struct {
	normalizer *normalize.Normalizer
	maxUpload  int64
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(normalizer *normalize.Normalizer, maxUpload int64) *TransactionsHandler {
	return &TransactionsHandler{normalizer: normalizer, maxUpload: maxUpload}
}

// ParseTabular handles POST /api/parse/tabular
func (h *TransactionsHandler) ParseTabular(w http.ResponseWriter, r *http.Request) {
	name, data, status, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		middleware.WriteError(w, status, err.Error())
		return
	}

	res, err := tabular.Parse(name, data, h.normalizer, r.FormValue("bank_name"))
	switch {
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		middleware.WriteError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Str("file", name).Msg("Failed to parse tabular upload")
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

type dedupeRequest struct {
	Transactions []domain.Transaction `json:"transactions"`
	Collapse     bool                 `json:"collapse"`
}

// dedupeResponse echoes the input; duplicates and groups index into it.
// Collapsed is set only when the request asked for it.
type dedupeResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Duplicates   []bool               `json:"duplicates"`
	Groups       [][]int              `json:"groups"`
	Collapsed    []domain.Transaction `json:"collapsed,omitempty"`
}

// Dedupe handles POST /api/transactions/dedupe
func (h *TransactionsHandler) Dedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if err := decodeJSON(w, r, h.maxUpload, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Transactions == nil {
		req.Transactions = []domain.Transaction{}
	}

	resp := dedupeResponse{
		Transactions: req.Transactions,
		Duplicates:   dedupe.Mark(req.Transactions),
		Groups:       dedupe.Groups(req.Transactions),
	}
	if resp.Groups == nil {
		resp.Groups = [][]int{}
	}
	if req.Collapse {
		resp.Collapsed = dedupe.Collapse(req.Transactions)
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	return json.NewDecoder(r.Body).Decode(v)
}
