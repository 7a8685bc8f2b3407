package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecapServicer defines the service methods needed by recap handlers.
// Satisfied by *service.RecapService; narrow interface for testability.
type RecapServicer interface {
	Recap(ctx context.Context, month service.Month, ledger database.Ledger, filter service.RecapFilter) (*service.RecapResult, error)
}

// RecapHandler serves the calendar-grid aggregate for one ledger. Its JSON
// is the payload the PDF/spreadsheet exporters consume.
type RecapHandler struct {
	svc    RecapServicer
	ledger database.Ledger
}

func NewRecapHandler(svc RecapServicer, ledger database.Ledger) *RecapHandler {
	return &RecapHandler{svc: svc, ledger: ledger}
}

type recapRowResponse struct {
	OutletID           uuid.UUID     `json:"outlet_id"`
	OutletCode         string        `json:"outlet_code"`
	OutletName         string        `json:"outlet_name"`
	Quota              int32         `json:"quota"`
	Status             string        `json:"status"`
	Daily              map[int]int32 `json:"daily"`
	TotalNormal        int32         `json:"total_normal"`
	TotalDiscretionary int32         `json:"total_discretionary"`
	GrandTotal         int32         `json:"grand_total"`
	RemainingQuota     int32         `json:"remaining_quota"`
	Achievement        string        `json:"achievement"`
}

type recapResponse struct {
	Month       string             `json:"month"`
	DaysInMonth int                `json:"days_in_month"`
	Rows        []recapRowResponse `json:"rows"`
}

// Recap handles GET /{ledger}/recap?month=YYYY-MM[&tag=][&gas_variant=].
func (h *RecapHandler) Recap(w http.ResponseWriter, r *http.Request) {
	month, err := service.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, expected YYYY-MM"})
		return
	}

	filter := service.RecapFilter{
		Tag:        r.URL.Query().Get("tag"),
		GasVariant: r.URL.Query().Get("gas_variant"),
	}

	result, err := h.svc.Recap(r.Context(), month, h.ledger, filter)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTag):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tag"})
		case errors.Is(err, service.ErrInvalidGasVariant):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gas_variant"})
		default:
			log.Printf("ERROR: recap %s %s: %v", h.ledger, month, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	rows := make([]recapRowResponse, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = recapRowResponse{
			OutletID:           row.OutletID,
			OutletCode:         row.OutletCode,
			OutletName:         row.OutletName,
			Quota:              row.Quota,
			Status:             row.Status,
			Daily:              row.Daily,
			TotalNormal:        row.TotalNormal,
			TotalDiscretionary: row.TotalDiscretionary,
			GrandTotal:         row.GrandTotal,
			RemainingQuota:     row.RemainingQuota,
			Achievement:        achievementPercent(row.GrandTotal, row.Quota),
		}
	}

	writeJSON(w, http.StatusOK, recapResponse{
		Month:       result.Month.String(),
		DaysInMonth: result.DaysInMonth,
		Rows:        rows,
	})
}

// achievementPercent renders grand_total as a percentage of quota, one
// decimal place. Zero-quota outlets report "0".
func achievementPercent(grandTotal, quota int32) string {
	if quota == 0 {
		return "0"
	}
	return decimal.NewFromInt32(grandTotal).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt32(quota)).
		StringFixed(1)
}
