package service

import (
	"context"
	"fmt"
	"time"

	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// RecapStore defines the DB methods needed to build a recapitulation.
// Satisfied by *database.Queries; narrow interface for testability.
type RecapStore interface {
	ListActiveOutlets(ctx context.Context) ([]database.Outlet, error)
	ListLedgerRecords(ctx context.Context, arg database.ListLedgerRecordsParams) ([]database.ListLedgerRecordsRow, error)
}

// RecapService computes the per-outlet calendar grid for a month. Read-only:
// it never writes and is safe to call concurrently with the editors, in which
// case it reflects a point-in-time snapshot.
type RecapService struct {
	store RecapStore
}

func NewRecapService(store RecapStore) *RecapService {
	return &RecapService{store: store}
}

// RecapFilter narrows the joined records; empty fields mean no filter.
type RecapFilter struct {
	Tag        string
	GasVariant string
}

// RecapRow is one outlet's line in the grid. Daily is keyed by day of month;
// days with no record are simply absent. RemainingQuota goes negative when a
// month is over-distributed, which is reported, not rejected.
type RecapRow struct {
	OutletID           uuid.UUID
	OutletCode         string
	OutletName         string
	Quota              int32
	Status             string
	Daily              map[int]int32
	TotalNormal        int32
	TotalDiscretionary int32
	GrandTotal         int32
	RemainingQuota     int32
}

type RecapResult struct {
	Month       Month
	DaysInMonth int
	Rows        []RecapRow
}

// Recap joins active outlets with one ledger's records for the month and
// aggregates them day by day. Rows come back in outlet code order.
func (s *RecapService) Recap(ctx context.Context, month Month, ledger database.Ledger, filter RecapFilter) (*RecapResult, error) {
	if !ValidLedger(ledger) {
		return nil, ErrInvalidLedger
	}
	if filter.Tag != "" && !ValidTag(ledger, filter.Tag) {
		return nil, ErrInvalidTag
	}
	if filter.GasVariant != "" && !ValidGasVariant(database.GasVariant(filter.GasVariant)) {
		return nil, ErrInvalidGasVariant
	}

	outlets, err := s.store.ListActiveOutlets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outlets: %w", err)
	}

	records, err := s.store.ListLedgerRecords(ctx, database.ListLedgerRecordsParams{
		Ledger:     ledger,
		DateFrom:   dateValue(month.First()),
		DateTo:     dateValue(month.Last()),
		Tag:        optText(filter.Tag),
		GasVariant: optText(filter.GasVariant),
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	// Group records per outlet before walking the outlet list so every active
	// outlet gets a row, including ones with no records at all.
	byOutlet := make(map[uuid.UUID][]database.ListLedgerRecordsRow)
	for _, r := range records {
		byOutlet[r.OutletID] = append(byOutlet[r.OutletID], r)
	}

	rows := make([]RecapRow, 0, len(outlets))
	for _, o := range outlets {
		row := RecapRow{
			OutletID:   o.ID,
			OutletCode: o.Code,
			OutletName: o.Name,
			Quota:      o.MonthlyQuota,
			Status:     outletStatus(o),
			Daily:      map[int]int32{},
		}
		for _, r := range byOutlet[o.ID] {
			qty := r.NormalQty + r.DiscretionaryQty
			row.Daily[r.RecordDate.Time.Day()] += qty
			row.TotalNormal += r.NormalQty
			row.TotalDiscretionary += r.DiscretionaryQty
		}
		row.GrandTotal = row.TotalNormal + row.TotalDiscretionary
		row.RemainingQuota = row.Quota - row.GrandTotal
		rows = append(rows, row)
	}

	return &RecapResult{
		Month:       month,
		DaysInMonth: month.NumDays(),
		Rows:        rows,
	}, nil
}

func outletStatus(o database.Outlet) string {
	if o.IsActive {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// --- Shared validation helpers ---

func ValidLedger(l database.Ledger) bool {
	switch l {
	case database.LedgerDISTRIBUTION, database.LedgerPLAN:
		return true
	}
	return false
}

func ValidGasVariant(v database.GasVariant) bool {
	switch v {
	case database.GasVariant3KG, database.GasVariant5KG, database.GasVariant12KG:
		return true
	}
	return false
}

// ValidTag checks a tag against the closed set for its ledger: payment types
// on the distribution ledger, conditions on the plan ledger.
func ValidTag(l database.Ledger, tag string) bool {
	switch l {
	case database.LedgerDISTRIBUTION:
		return tag == enum.PaymentTypeCash || tag == enum.PaymentTypeCashless
	case database.LedgerPLAN:
		return tag == enum.ConditionNormal || tag == enum.ConditionFakultatif
	}
	return false
}

// --- pgtype helpers ---

func dateValue(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func optText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
