package handlers

import (
	"net/http"
	"time"

	"github.com/vhsolanki8600/bank-to-tally/internal/api/middleware"
)

// Handlers groups the endpoint handlers served by the API.
type Handlers struct {
	Extract      *ExtractHandler
	Transactions *TransactionsHandler
	Export       *ExportHandler
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", Health)

	mux.HandleFunc("POST /api/extract", h.Extract.Stream)
	mux.HandleFunc("POST /api/extract/image", h.Extract.Image)

	mux.HandleFunc("POST /api/parse/tabular", h.Transactions.ParseTabular)
	mux.HandleFunc("POST /api/transactions/dedupe", h.Transactions.Dedupe)

	mux.HandleFunc("POST /api/export/tally", h.Export.Tally)
	mux.HandleFunc("POST /api/export/xlsx", h.Export.XLSX)

	return mux
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
