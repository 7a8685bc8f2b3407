package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/service"
	"github.com/google/uuid"
)

// BulkServicer defines the service methods needed by bulk edit handlers.
// Satisfied by *service.BulkService; narrow interface for testability.
type BulkServicer interface {
	BulkApply(ctx context.Context, req service.BulkApplyRequest) ([]database.LedgerRecord, error)
}

// BulkHandler applies a single delta across a date range on one ledger.
type BulkHandler struct {
	svc    BulkServicer
	ledger database.Ledger
}

func NewBulkHandler(svc BulkServicer, ledger database.Ledger) *BulkHandler {
	return &BulkHandler{svc: svc, ledger: ledger}
}

type bulkApplyRequest struct {
	OutletID         string `json:"outlet_id"`
	DateFrom         string `json:"date_from"`
	DateTo           string `json:"date_to"`
	GasVariant       string `json:"gas_variant"`
	Tag              string `json:"tag"`
	NormalQty        *int32 `json:"normal_qty"`
	DiscretionaryQty *int32 `json:"discretionary_qty"`
}

// Apply handles POST /{ledger}/bulk. All days in the range are written in one
// transaction; a failure anywhere leaves the ledger untouched.
func (h *BulkHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req bulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	outletID, err := uuid.Parse(req.OutletID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
		return
	}

	dateFrom, err := time.Parse(dateLayout, req.DateFrom)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_from, expected YYYY-MM-DD"})
		return
	}
	dateTo, err := time.Parse(dateLayout, req.DateTo)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_to, expected YYYY-MM-DD"})
		return
	}

	records, err := h.svc.BulkApply(r.Context(), service.BulkApplyRequest{
		Ledger:           h.ledger,
		OutletID:         outletID,
		DateFrom:         dateFrom,
		DateTo:           dateTo,
		GasVariant:       database.GasVariant(req.GasVariant),
		Tag:              req.Tag,
		NormalQty:        req.NormalQty,
		DiscretionaryQty: req.DiscretionaryQty,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDateRange),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidGasVariant),
			errors.Is(err, service.ErrInvalidTag):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOutletNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
		default:
			log.Printf("ERROR: bulk apply %s: %v", h.ledger, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "bulk edit failed, no changes applied"})
		}
		return
	}

	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		resp[i] = toRecordResponse(rec)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GenerateServicer defines the service methods needed by the generate handler.
// Satisfied by *service.GenerateService; narrow interface for testability.
type GenerateServicer interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateSummary, error)
}

// GenerateHandler triggers the plan auto-generation batch.
type GenerateHandler struct {
	svc GenerateServicer
}

func NewGenerateHandler(svc GenerateServicer) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

type generateRequest struct {
	Month      string `json:"month"`
	GasVariant string `json:"gas_variant"`
	Condition  string `json:"condition"`
	Overwrite  bool   `json:"overwrite"`
}

// generateTimeout bounds a full regeneration over every outlet-day. The
// transaction rolls back cleanly if it trips.
const generateTimeout = 60 * time.Second

// Generate handles POST /plans/generate and returns the run summary verbatim.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	month, err := service.ParseMonth(req.Month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, expected YYYY-MM"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	summary, err := h.svc.Generate(ctx, service.GenerateRequest{
		Month:      month,
		GasVariant: database.GasVariant(req.GasVariant),
		Condition:  req.Condition,
		Overwrite:  req.Overwrite,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGasVariant),
			errors.Is(err, service.ErrInvalidTag):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrGenerationBusy):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "generation already running for this month and variant, try again"})
		case isUniqueViolation(err):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "plan records already exist for this scope; use overwrite"})
		default:
			log.Printf("ERROR: generate plan %s %s: %v", req.Month, req.GasVariant, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "generation failed, no changes applied"})
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
