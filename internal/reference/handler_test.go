package reference_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fidelis/internal/reference"
)

func newRouter(store reference.Store) chi.Router {
	r := chi.NewRouter()
	reference.NewHandler(store).Register(r)
	return r
}

func TestHandleList(t *testing.T) {
	store := reference.NewInMemoryStore()
	store.Seed(reference.KindUnits, "RFU-5", "RFU-7")
	router := newRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reference/units", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []reference.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "RFU-5", body.Items[0].Name)
}

func TestHandleList_UnknownKind(t *testing.T) {
	router := newRouter(reference.NewInMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reference/payrolls", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleList_EmptyTable(t *testing.T) {
	router := newRouter(reference.NewInMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reference/signatories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
