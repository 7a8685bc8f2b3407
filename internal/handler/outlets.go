package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/elpijiku/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OutletStore defines the database methods needed by outlet handlers.
// The outlet registry is owned elsewhere; this service only reads it.
type OutletStore interface {
	ListActiveOutlets(ctx context.Context) ([]database.Outlet, error)
}

// OutletHandler exposes the read-only outlet lookup consumed by the UI.
type OutletHandler struct {
	store OutletStore
}

func NewOutletHandler(store OutletStore) *OutletHandler {
	return &OutletHandler{store: store}
}

func (h *OutletHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type outletResponse struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	MonthlyQuota int32     `json:"monthly_quota"`
	IsActive     bool      `json:"is_active"`
}

// List returns every active outlet with its quota, ordered by code.
func (h *OutletHandler) List(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.store.ListActiveOutlets(r.Context())
	if err != nil {
		log.Printf("ERROR: list outlets: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]outletResponse, len(outlets))
	for i, o := range outlets {
		resp[i] = outletResponse{
			ID:           o.ID,
			Code:         o.Code,
			Name:         o.Name,
			MonthlyQuota: o.MonthlyQuota,
			IsActive:     o.IsActive,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
