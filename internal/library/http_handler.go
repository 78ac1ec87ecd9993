package library

import (
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

type addReq struct {
	GoogleBooksID string `json:"googleBooksId" validate:"max=64"`
	ISBN          string `json:"isbn" validate:"omitempty,isbn"`
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"max=500"`
	Description   string `json:"description"`
	CoverURL      string `json:"coverUrl" validate:"omitempty,url"`
	PageCount     int    `json:"pageCount" validate:"gte=0"`
	Genre         string `json:"genre" validate:"max=100"`
	PublishedDate string `json:"publishedDate" validate:"max=32"`
	Publisher     string `json:"publisher" validate:"max=255"`
}

func (req addReq) candidate() catalog.Candidate {
	return catalog.Candidate{
		ExternalID:    req.GoogleBooksID,
		ISBN:          req.ISBN,
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		PageCount:     req.PageCount,
		Genre:         req.Genre,
		PublishedDate: req.PublishedDate,
		Publisher:     req.Publisher,
	}
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// Add handles POST /v1/library with a search candidate as the body.
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}

	var req addReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.service.AddFromCandidate(r.Context(), caller, req.candidate())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, rec)
}

// List handles GET /v1/library?status=
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListForOwner(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, records, map[string]any{"total": len(records)})
}

func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetOne(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rec, nil)
}

// UpdateStatus handles PATCH /v1/library/{id}/status.
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}

	var req statusReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.service.UpdateStatus(r.Context(), caller, r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rec, nil)
}

func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := httpx.CallerFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), caller, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrUnknownStatus):
		httpx.JSONError(w, r, http.StatusBadRequest, "UNKNOWN_STATUS", err.Error(), nil)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Library record not found", nil)
	case errors.Is(err, ErrAlreadyOwned):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_OWNED", "Book is already in your library", nil)
	case errors.Is(err, catalog.ErrDuplicateEntry):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT_RETRY", "Book was added concurrently, retry the request", nil)
	default:
		h.logger.Error("library request failed", "request_id", httpx.RequestIDFrom(r), "path", r.URL.Path, "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
