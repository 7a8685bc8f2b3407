package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/elpijiku/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrGenerationBusy means another generation for the same month and variant
// holds the scope lock. Callers should retry later rather than wait.
var ErrGenerationBusy = errors.New("plan generation already running for this scope")

// GenerateStore defines the DB methods needed to auto-generate a plan month.
// Satisfied by *database.Queries (and its WithTx variant).
type GenerateStore interface {
	ListActiveOutlets(ctx context.Context) ([]database.Outlet, error)
	DeleteLedgerRecordsInRange(ctx context.Context, arg database.DeleteLedgerRecordsInRangeParams) (int64, error)
	CreateLedgerRecord(ctx context.Context, arg database.CreateLedgerRecordParams) (database.LedgerRecord, error)
	TryAdvisoryXactLock(ctx context.Context, key int64) (bool, error)
}

// NewGenerateStore creates a GenerateStore from a DBTX (pool or tx).
type NewGenerateStore func(db database.DBTX) GenerateStore

// GenerateService builds a full month of plan records that exactly exhaust
// each active outlet's quota across the month's working days.
type GenerateService struct {
	pool     TxBeginner
	newStore NewGenerateStore
	workDay  DayPredicate
}

// NewGenerateService wires the service. A nil workDay falls back to the
// exclude-Sundays policy.
func NewGenerateService(pool TxBeginner, newStore NewGenerateStore, workDay DayPredicate) *GenerateService {
	if workDay == nil {
		workDay = ExcludeSundays
	}
	return &GenerateService{pool: pool, newStore: newStore, workDay: workDay}
}

// GenerateRequest is the validated input for one generation run. Condition is
// the plan tag stamped on every generated record.
type GenerateRequest struct {
	Month      Month
	GasVariant database.GasVariant
	Condition  string
	Overwrite  bool
}

// GenerateSummary is the operator feedback for a completed run.
type GenerateSummary struct {
	TotalOutlets   int   `json:"total_outlets"`
	SkippedNoQuota int   `json:"skipped_no_quota"`
	WorkDays       int   `json:"work_days"`
	DeletedRecords int64 `json:"deleted_records"`
	CreatedRecords int   `json:"created_records"`
	DurationMs     int64 `json:"duration_ms"`
}

// Generate runs the whole batch in one transaction guarded by an advisory
// lock on the (month, variant) scope, so two overlapping runs can never
// double-delete or interleave rows. On any failure, including a context
// timeout, nothing is written.
func (s *GenerateService) Generate(ctx context.Context, req GenerateRequest) (*GenerateSummary, error) {
	if !ValidGasVariant(req.GasVariant) {
		return nil, ErrInvalidGasVariant
	}
	if !ValidTag(database.LedgerPLAN, req.Condition) {
		return nil, ErrInvalidTag
	}

	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	acquired, err := store.TryAdvisoryXactLock(ctx, generateLockKey(req.Month, req.GasVariant))
	if err != nil {
		return nil, fmt.Errorf("acquire scope lock: %w", err)
	}
	if !acquired {
		return nil, ErrGenerationBusy
	}

	outlets, err := store.ListActiveOutlets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outlets: %w", err)
	}

	var eligible []database.Outlet
	summary := &GenerateSummary{TotalOutlets: len(outlets)}
	for _, o := range outlets {
		if o.MonthlyQuota > 0 {
			eligible = append(eligible, o)
		} else {
			summary.SkippedNoQuota++
		}
	}

	workDays := WorkingDays(req.Month, s.workDay)
	summary.WorkDays = len(workDays)

	if req.Overwrite && len(eligible) > 0 {
		ids := make([]uuid.UUID, len(eligible))
		for i, o := range eligible {
			ids[i] = o.ID
		}
		deleted, err := store.DeleteLedgerRecordsInRange(ctx, database.DeleteLedgerRecordsInRangeParams{
			Ledger:     database.LedgerPLAN,
			GasVariant: req.GasVariant,
			DateFrom:   dateValue(req.Month.First()),
			DateTo:     dateValue(req.Month.Last()),
			OutletIds:  ids,
		})
		if err != nil {
			return nil, fmt.Errorf("delete existing plan: %w", err)
		}
		summary.DeletedRecords = deleted
	}

	// A month where the policy excludes every day generates nothing; that is
	// a reported state, not an error.
	if len(workDays) > 0 {
		for _, o := range eligible {
			shares := distributeEvenly(o.MonthlyQuota, len(workDays))
			snapshot := pgtype.Int4{Int32: o.MonthlyQuota, Valid: true}
			for i, day := range workDays {
				if _, err := store.CreateLedgerRecord(ctx, database.CreateLedgerRecordParams{
					Ledger:           database.LedgerPLAN,
					OutletID:         o.ID,
					RecordDate:       dateValue(day),
					GasVariant:       req.GasVariant,
					NormalQty:        shares[i],
					DiscretionaryQty: 0,
					Tag:              req.Condition,
					QuotaSnapshot:    snapshot,
				}); err != nil {
					return nil, fmt.Errorf("create plan %s %s: %w", o.Code, day.Format("2006-01-02"), err)
				}
				summary.CreatedRecords++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	return summary, nil
}

// distributeEvenly splits q units across n slots so they sum to q exactly:
// the first q%n slots get one extra unit.
func distributeEvenly(q int32, n int) []int32 {
	base := q / int32(n)
	rem := int(q % int32(n))
	shares := make([]int32, n)
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

// generateLockKey hashes the generation scope into a pg advisory lock key.
func generateLockKey(m Month, v database.GasVariant) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "plan-generate:%s:%s", m, v)
	return int64(h.Sum64())
}
