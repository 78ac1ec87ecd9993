package library

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/catalog"
	"bookshelf/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc, _, _ := newMemService(t)
	h := NewHTTPHandler(svc, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/library", h.Add)
	mux.HandleFunc("GET /v1/library", h.List)
	mux.HandleFunc("GET /v1/library/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/library/{id}/status", h.UpdateStatus)
	mux.HandleFunc("DELETE /v1/library/{id}", h.Remove)
	return mux
}

func serve(mux *http.ServeMux, r *http.Request, userID string) *httptest.ResponseRecorder {
	if userID != "" {
		r = testutil.WithCaller(r, userID)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

var duneBody = map[string]any{
	"googleBooksId": "gb123",
	"isbn":          "9780441013593",
	"title":         "Dune",
	"author":        "Frank Herbert",
	"pageCount":     896,
}

func addDune(t *testing.T, mux *http.ServeMux, userID string) string {
	t.Helper()
	w := serve(mux, testutil.NewRequest(http.MethodPost, "/v1/library", duneBody), userID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := testutil.DecodeBody(t, w)["data"].(map[string]any)
	return data["id"].(string)
}

func TestHTTPHandler_Add(t *testing.T) {
	mux := newTestMux(t)

	w := serve(mux, testutil.NewRequest(http.MethodPost, "/v1/library", duneBody), "u1")
	require.Equal(t, http.StatusCreated, w.Code)
	data := testutil.DecodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, StatusToRead, data["status"])
	assert.Equal(t, "Dune", data["book"].(map[string]any)["title"])

	w = serve(mux, testutil.NewRequest(http.MethodPost, "/v1/library", duneBody), "u1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_OWNED", testutil.ErrorCode(t, w))
}

func TestHTTPHandler_AddValidation(t *testing.T) {
	mux := newTestMux(t)

	w := serve(mux, testutil.NewRequest(http.MethodPost, "/v1/library", map[string]any{"isbn": "123"}), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, w))

	w = serve(mux, httptest.NewRequest(http.MethodPost, "/v1/library", nil), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTPHandler_Unauthenticated(t *testing.T) {
	mux := newTestMux(t)

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHTTPHandler_StatusFlow(t *testing.T) {
	mux := newTestMux(t)
	id := addDune(t, mux, "u1")

	w := serve(mux, testutil.NewRequest(http.MethodPatch, "/v1/library/"+id+"/status", map[string]any{"status": "reading"}), "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := testutil.DecodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, StatusReading, data["status"])
	assert.NotEmpty(t, data["started_at"])

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library?status=reading", nil), "u1")
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.DecodeBody(t, w)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].(map[string]any)["id"])
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])

	w = serve(mux, testutil.NewRequest(http.MethodPatch, "/v1/library/"+id+"/status", map[string]any{"status": "archived"}), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_STATUS", testutil.ErrorCode(t, w))

	w = serve(mux, testutil.NewRequest(http.MethodPatch, "/v1/library/"+id+"/status", map[string]any{}), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, w))

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library?status=archived", nil), "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTPHandler_OtherOwnerSeesNotFound(t *testing.T) {
	mux := newTestMux(t)
	id := addDune(t, mux, "u1")

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library/"+id, nil), "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)
	notOwned := w.Body.String()

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library/"+uuid.NewString(), nil), "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, notOwned, w.Body.String(), "missing and foreign records look the same")

	w = serve(mux, testutil.NewRequest(http.MethodPatch, "/v1/library/"+id+"/status", map[string]any{"status": "finished"}), "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(mux, httptest.NewRequest(http.MethodDelete, "/v1/library/"+id, nil), "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library/"+id, nil), "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusToRead, testutil.DecodeBody(t, w)["data"].(map[string]any)["status"])
}

func TestHTTPHandler_Remove(t *testing.T) {
	mux := newTestMux(t)
	id := addDune(t, mux, "u1")

	w := serve(mux, httptest.NewRequest(http.MethodDelete, "/v1/library/"+id, nil), "u1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/v1/library/"+id, nil), "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPHandler_AddBookGone(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	resolver := NewMockResolver(ctrl)
	bookID := uuid.NewString()
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), "u1").Return(catalog.Entry{ID: bookID, Title: "Dune"}, nil)
	repo.EXPECT().StatusID(gomock.Any(), StatusToRead).Return(1, true, nil)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), 1).Return(ErrBookNotFound)

	h := NewHTTPHandler(NewService(repo, resolver, nil, discardLogger()), discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/library", h.Add)

	w := serve(mux, testutil.NewRequest(http.MethodPost, "/v1/library", duneBody), "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOK_NOT_FOUND", testutil.ErrorCode(t, w))
}
