package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fidelis/pkg/platform/httputil"
)

// Handler serves the lookup tables.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Register mounts one list endpoint per lookup table.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reference/{kind}", h.HandleList)
}

// HandleList handles GET /reference/{kind}.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), Kind(chi.URLParam(r, "kind")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
