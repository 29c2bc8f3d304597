// Package api wires the HTTP surface: import analysis and import,
// categorization, search, health and metrics.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FACorreiaa/echo-ledger/internal/api/middleware"
	cathandler "github.com/FACorreiaa/echo-ledger/internal/domain/categorization/handler"
	importhandler "github.com/FACorreiaa/echo-ledger/internal/domain/import/handler"
	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/config"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
)

// Searcher answers full-text queries over ledger descriptions.
type Searcher interface {
	Search(query string, limit int) ([]ledger.SearchHit, error)
}

// Handlers groups what the router serves. Search and Metrics are optional.
type Handlers struct {
	Import         *importhandler.ImportHandler
	Categorization *cathandler.CategorizationHandler
	Search         Searcher
	Metrics        *metrics.Metrics
}

// NewRouter builds the mux and wraps it with recovery, request IDs, logging,
// CORS and rate limiting.
func NewRouter(cfg config.ServerConfig, h Handlers, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/analyze", h.Import.Analyze)
	mux.HandleFunc("POST /v1/import", h.Import.Import)
	mux.HandleFunc("POST /v1/suggest", h.Categorization.Suggest)
	mux.HandleFunc("POST /v1/learn", h.Categorization.Learn)
	mux.HandleFunc("GET /v1/categories", h.Categorization.Categories)
	mux.HandleFunc("GET /v1/search", searchHandler(h.Search, logger))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}

	return middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	)
}

// NewServer creates the HTTP server for handler.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

func searchHandler(searcher Searcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if searcher == nil {
			middleware.WriteError(w, http.StatusNotImplemented, "search index is not configured")
			return
		}
		q := r.URL.Query().Get("q")
		if q == "" {
			middleware.WriteError(w, http.StatusBadRequest, "q is required")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		hits, err := searcher.Search(q, limit)
		if err != nil {
			logger.Error("search failed", "query", q, "error", err)
			middleware.WriteError(w, http.StatusInternalServerError, "search failed")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"hits": hits, "count": len(hits)})
	}
}
