package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type mockOutletStore struct {
	outlets []database.Outlet
	err     error
}

func (m *mockOutletStore) ListActiveOutlets(context.Context) ([]database.Outlet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.outlets, nil
}

func setupOutletRouter(store handler.OutletStore) http.Handler {
	h := handler.NewOutletHandler(store)
	r := chi.NewRouter()
	r.Route("/outlets", h.RegisterRoutes)
	return r
}

func TestListOutlets(t *testing.T) {
	store := &mockOutletStore{
		outlets: []database.Outlet{
			{ID: uuid.New(), Code: "PKL-001", Name: "Pangkalan Berkah Jaya", MonthlyQuota: 500, IsActive: true},
			{ID: uuid.New(), Code: "PKL-002", Name: "Pangkalan Sumber Rezeki", MonthlyQuota: 350, IsActive: true},
		},
	}
	router := setupOutletRouter(store)

	rr := getPath(t, router, "/outlets")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("got %d outlets, want 2", len(resp))
	}
	if resp[0]["code"] != "PKL-001" {
		t.Errorf("code: got %v, want PKL-001", resp[0]["code"])
	}
	if resp[0]["monthly_quota"] != float64(500) {
		t.Errorf("monthly_quota: got %v, want 500", resp[0]["monthly_quota"])
	}
}

func TestListOutlets_StoreError(t *testing.T) {
	router := setupOutletRouter(&mockOutletStore{err: errors.New("connection reset")})

	rr := getPath(t, router, "/outlets")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
