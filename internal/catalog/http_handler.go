package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/httpx"
)

// Searcher is the part of the gateway the HTTP layer depends on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

type HTTPHandler struct {
	gateway Searcher
	logger  *slog.Logger
}

func NewHTTPHandler(gateway Searcher, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{gateway: gateway, logger: logger}
}

// Search handles GET /v1/library/search?query=
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpx.CallerFrom(w, r); !ok {
		return
	}

	candidates, err := h.gateway.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuery):
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Query parameter is required", nil)
		case errors.Is(err, ErrMisconfigured):
			h.logger.Error("book search misconfigured", "request_id", httpx.RequestIDFrom(r), "error", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, "MISCONFIGURED", "Book search is not configured", nil)
		default:
			h.logger.Error("book search failed", "request_id", httpx.RequestIDFrom(r), "error", err)
			httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Book search is unavailable", nil)
		}
		return
	}

	httpx.JSONSuccess(w, r, candidates, map[string]any{"total": len(candidates)})
}
