package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elpijiku/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Errors returned by the planning services.
var (
	ErrInvalidLedger     = errors.New("invalid ledger")
	ErrInvalidDateRange  = errors.New("date_from must not be after date_to")
	ErrInvalidQuantity   = errors.New("quantity must be >= 0")
	ErrInvalidGasVariant = errors.New("invalid gas_variant")
	ErrInvalidTag        = errors.New("invalid tag for ledger")
	ErrOutletNotFound    = errors.New("outlet not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BulkStore defines the DB methods needed to apply a bulk edit.
// Satisfied by *database.Queries (and its WithTx variant).
type BulkStore interface {
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	GetLedgerRecordByKeyForUpdate(ctx context.Context, arg database.GetLedgerRecordByKeyForUpdateParams) (database.LedgerRecord, error)
	CreateLedgerRecord(ctx context.Context, arg database.CreateLedgerRecordParams) (database.LedgerRecord, error)
	UpdateLedgerRecord(ctx context.Context, arg database.UpdateLedgerRecordParams) (database.LedgerRecord, error)
}

// NewBulkStore creates a BulkStore from a DBTX (pool or tx).
type NewBulkStore func(db database.DBTX) BulkStore

// BulkService applies one quantity delta across a date range for a single
// outlet and variant, atomically.
type BulkService struct {
	pool     TxBeginner
	newStore NewBulkStore
}

func NewBulkService(pool TxBeginner, newStore NewBulkStore) *BulkService {
	return &BulkService{pool: pool, newStore: newStore}
}

// BulkApplyRequest is the validated input for a bulk edit. Nil quantities are
// left untouched on existing records and default to zero on created ones.
type BulkApplyRequest struct {
	Ledger           database.Ledger
	OutletID         uuid.UUID
	DateFrom         time.Time
	DateTo           time.Time
	GasVariant       database.GasVariant
	Tag              string
	NormalQty        *int32
	DiscretionaryQty *int32
}

// BulkApply upserts one record per day over [DateFrom, DateTo] inside a single
// transaction: all days land or none do. A day whose existing record carries a
// different tag is skipped untouched, so an edit scoped to CASH can never
// bleed into CASHLESS rows. Returns the written records in day order.
func (s *BulkService) BulkApply(ctx context.Context, req BulkApplyRequest) ([]database.LedgerRecord, error) {
	if !ValidLedger(req.Ledger) {
		return nil, ErrInvalidLedger
	}
	if !ValidGasVariant(req.GasVariant) {
		return nil, ErrInvalidGasVariant
	}
	if !ValidTag(req.Ledger, req.Tag) {
		return nil, ErrInvalidTag
	}
	if req.DateFrom.IsZero() || req.DateTo.IsZero() || req.DateFrom.After(req.DateTo) {
		return nil, ErrInvalidDateRange
	}
	if (req.NormalQty != nil && *req.NormalQty < 0) ||
		(req.DiscretionaryQty != nil && *req.DiscretionaryQty < 0) {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	outlet, err := store.GetOutlet(ctx, req.OutletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOutletNotFound
		}
		return nil, fmt.Errorf("get outlet: %w", err)
	}

	// Plan records remember the quota in force when they were written.
	quotaSnapshot := pgtype.Int4{}
	if req.Ledger == database.LedgerPLAN {
		quotaSnapshot = pgtype.Int4{Int32: outlet.MonthlyQuota, Valid: true}
	}

	var affected []database.LedgerRecord
	for day := req.DateFrom; !day.After(req.DateTo); day = day.AddDate(0, 0, 1) {
		existing, err := store.GetLedgerRecordByKeyForUpdate(ctx, database.GetLedgerRecordByKeyForUpdateParams{
			Ledger:     req.Ledger,
			OutletID:   req.OutletID,
			RecordDate: dateValue(day),
			GasVariant: req.GasVariant,
		})
		switch {
		case err == nil:
			if existing.Tag != req.Tag {
				continue
			}
			normal := existing.NormalQty
			discretionary := existing.DiscretionaryQty
			if req.NormalQty != nil {
				normal = *req.NormalQty
			}
			if req.DiscretionaryQty != nil {
				discretionary = *req.DiscretionaryQty
			}
			updated, err := store.UpdateLedgerRecord(ctx, database.UpdateLedgerRecordParams{
				ID:               existing.ID,
				Ledger:           req.Ledger,
				NormalQty:        normal,
				DiscretionaryQty: discretionary,
				Tag:              existing.Tag,
			})
			if err != nil {
				return nil, fmt.Errorf("update %s: %w", day.Format("2006-01-02"), err)
			}
			affected = append(affected, updated)

		case errors.Is(err, pgx.ErrNoRows):
			normal := int32(0)
			discretionary := int32(0)
			if req.NormalQty != nil {
				normal = *req.NormalQty
			}
			if req.DiscretionaryQty != nil {
				discretionary = *req.DiscretionaryQty
			}
			created, err := store.CreateLedgerRecord(ctx, database.CreateLedgerRecordParams{
				Ledger:           req.Ledger,
				OutletID:         req.OutletID,
				RecordDate:       dateValue(day),
				GasVariant:       req.GasVariant,
				NormalQty:        normal,
				DiscretionaryQty: discretionary,
				Tag:              req.Tag,
				QuotaSnapshot:    quotaSnapshot,
			})
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", day.Format("2006-01-02"), err)
			}
			affected = append(affected, created)

		default:
			return nil, fmt.Errorf("get record %s: %w", day.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return affected, nil
}
