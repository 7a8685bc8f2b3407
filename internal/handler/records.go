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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const dateLayout = "2006-01-02"

// RecordStore defines the database methods needed by record handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RecordStore interface {
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	GetLedgerRecord(ctx context.Context, arg database.GetLedgerRecordParams) (database.LedgerRecord, error)
	CreateLedgerRecord(ctx context.Context, arg database.CreateLedgerRecordParams) (database.LedgerRecord, error)
	UpdateLedgerRecord(ctx context.Context, arg database.UpdateLedgerRecordParams) (database.LedgerRecord, error)
	DeleteLedgerRecord(ctx context.Context, arg database.DeleteLedgerRecordParams) (uuid.UUID, error)
	ListLedgerRecords(ctx context.Context, arg database.ListLedgerRecordsParams) ([]database.ListLedgerRecordsRow, error)
}

// RecordsHandler handles single-day CRUD on one ledger. The same handler is
// mounted once for /distributions and once for /plans.
type RecordsHandler struct {
	store  RecordStore
	ledger database.Ledger
}

func NewRecordsHandler(store RecordStore, ledger database.Ledger) *RecordsHandler {
	return &RecordsHandler{store: store, ledger: ledger}
}

// --- Request / Response types ---

type createRecordRequest struct {
	OutletID         string `json:"outlet_id"`
	Date             string `json:"date"`
	GasVariant       string `json:"gas_variant"`
	NormalQty        int32  `json:"normal_qty"`
	DiscretionaryQty int32  `json:"discretionary_qty"`
	Tag              string `json:"tag"`
}

type updateRecordRequest struct {
	NormalQty        *int32  `json:"normal_qty"`
	DiscretionaryQty *int32  `json:"discretionary_qty"`
	Tag              *string `json:"tag"`
}

type recordResponse struct {
	ID               uuid.UUID `json:"id"`
	OutletID         uuid.UUID `json:"outlet_id"`
	OutletCode       string    `json:"outlet_code,omitempty"`
	OutletName       string    `json:"outlet_name,omitempty"`
	Date             string    `json:"date"`
	GasVariant       string    `json:"gas_variant"`
	NormalQty        int32     `json:"normal_qty"`
	DiscretionaryQty int32     `json:"discretionary_qty"`
	Tag              string    `json:"tag"`
	QuotaSnapshot    *int32    `json:"quota_snapshot,omitempty"`
}

func toRecordResponse(rec database.LedgerRecord) recordResponse {
	resp := recordResponse{
		ID:               rec.ID,
		OutletID:         rec.OutletID,
		Date:             rec.RecordDate.Time.Format(dateLayout),
		GasVariant:       string(rec.GasVariant),
		NormalQty:        rec.NormalQty,
		DiscretionaryQty: rec.DiscretionaryQty,
		Tag:              rec.Tag,
	}
	if rec.QuotaSnapshot.Valid {
		snapshot := rec.QuotaSnapshot.Int32
		resp.QuotaSnapshot = &snapshot
	}
	return resp
}

func toRecordListResponse(row database.ListLedgerRecordsRow) recordResponse {
	resp := recordResponse{
		ID:               row.ID,
		OutletID:         row.OutletID,
		OutletCode:       row.OutletCode,
		OutletName:       row.OutletName,
		Date:             row.RecordDate.Time.Format(dateLayout),
		GasVariant:       string(row.GasVariant),
		NormalQty:        row.NormalQty,
		DiscretionaryQty: row.DiscretionaryQty,
		Tag:              row.Tag,
	}
	if row.QuotaSnapshot.Valid {
		snapshot := row.QuotaSnapshot.Int32
		resp.QuotaSnapshot = &snapshot
	}
	return resp
}

// --- Handlers ---

// List returns the ledger's records for a month, joined with outlets.
// Optional filters: outlet_id, tag, gas_variant.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	month, err := service.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month, expected YYYY-MM"})
		return
	}

	var outletID pgtype.UUID
	if s := r.URL.Query().Get("outlet_id"); s != "" {
		oid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
			return
		}
		outletID = pgtype.UUID{Bytes: oid, Valid: true}
	}

	var tag pgtype.Text
	if s := r.URL.Query().Get("tag"); s != "" {
		if !service.ValidTag(h.ledger, s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tag"})
			return
		}
		tag = pgtype.Text{String: s, Valid: true}
	}

	var variant pgtype.Text
	if s := r.URL.Query().Get("gas_variant"); s != "" {
		if !service.ValidGasVariant(database.GasVariant(s)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gas_variant"})
			return
		}
		variant = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListLedgerRecords(r.Context(), database.ListLedgerRecordsParams{
		Ledger:     h.ledger,
		DateFrom:   pgtype.Date{Time: month.First(), Valid: true},
		DateTo:     pgtype.Date{Time: month.Last(), Valid: true},
		OutletID:   outletID,
		Tag:        tag,
		GasVariant: variant,
	})
	if err != nil {
		log.Printf("ERROR: list %s records: %v", h.ledger, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]recordResponse, len(rows))
	for i, row := range rows {
		resp[i] = toRecordListResponse(row)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a single day's record to the ledger.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	outletID, err := uuid.Parse(req.OutletID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet_id"})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	if !service.ValidGasVariant(database.GasVariant(req.GasVariant)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gas_variant"})
		return
	}
	if !service.ValidTag(h.ledger, req.Tag) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tag"})
		return
	}
	if req.NormalQty < 0 || req.DiscretionaryQty < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantities must be >= 0"})
		return
	}

	outlet, err := h.store.GetOutlet(r.Context(), outletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
			return
		}
		log.Printf("ERROR: get outlet for create record: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	quotaSnapshot := pgtype.Int4{}
	if h.ledger == database.LedgerPLAN {
		quotaSnapshot = pgtype.Int4{Int32: outlet.MonthlyQuota, Valid: true}
	}

	rec, err := h.store.CreateLedgerRecord(r.Context(), database.CreateLedgerRecordParams{
		Ledger:           h.ledger,
		OutletID:         outletID,
		RecordDate:       pgtype.Date{Time: date, Valid: true},
		GasVariant:       database.GasVariant(req.GasVariant),
		NormalQty:        req.NormalQty,
		DiscretionaryQty: req.DiscretionaryQty,
		Tag:              req.Tag,
		QuotaSnapshot:    quotaSnapshot,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "record already exists for this outlet, date, and gas variant"})
			return
		}
		log.Printf("ERROR: create %s record: %v", h.ledger, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// Update patches quantities and/or tag on an existing record.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record ID"})
		return
	}

	var req updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if (req.NormalQty != nil && *req.NormalQty < 0) ||
		(req.DiscretionaryQty != nil && *req.DiscretionaryQty < 0) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantities must be >= 0"})
		return
	}
	if req.Tag != nil && !service.ValidTag(h.ledger, *req.Tag) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tag"})
		return
	}

	existing, err := h.store.GetLedgerRecord(r.Context(), database.GetLedgerRecordParams{
		ID:     id,
		Ledger: h.ledger,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		log.Printf("ERROR: get %s record: %v", h.ledger, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	normal := existing.NormalQty
	discretionary := existing.DiscretionaryQty
	tag := existing.Tag
	if req.NormalQty != nil {
		normal = *req.NormalQty
	}
	if req.DiscretionaryQty != nil {
		discretionary = *req.DiscretionaryQty
	}
	if req.Tag != nil {
		tag = *req.Tag
	}

	rec, err := h.store.UpdateLedgerRecord(r.Context(), database.UpdateLedgerRecordParams{
		ID:               id,
		Ledger:           h.ledger,
		NormalQty:        normal,
		DiscretionaryQty: discretionary,
		Tag:              tag,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		log.Printf("ERROR: update %s record: %v", h.ledger, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

// Delete removes a record. Deletes are hard: the row is gone.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid record ID"})
		return
	}

	if _, err := h.store.DeleteLedgerRecord(r.Context(), database.DeleteLedgerRecordParams{
		ID:     id,
		Ledger: h.ledger,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		log.Printf("ERROR: delete %s record: %v", h.ledger, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// isUniqueViolation checks for pgconn error code 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
