package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const recordColumns = `id, ledger, outlet_id, record_date, gas_variant,
	normal_qty, discretionary_qty, tag, quota_snapshot, created_at, updated_at`

func scanLedgerRecord(row interface{ Scan(dest ...any) error }) (LedgerRecord, error) {
	var rec LedgerRecord
	err := row.Scan(
		&rec.ID,
		&rec.Ledger,
		&rec.OutletID,
		&rec.RecordDate,
		&rec.GasVariant,
		&rec.NormalQty,
		&rec.DiscretionaryQty,
		&rec.Tag,
		&rec.QuotaSnapshot,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	return rec, err
}

const getLedgerRecord = `
SELECT ` + recordColumns + `
FROM ledger_records
WHERE id = $1 AND ledger = $2
`

type GetLedgerRecordParams struct {
	ID     uuid.UUID
	Ledger Ledger
}

func (q *Queries) GetLedgerRecord(ctx context.Context, arg GetLedgerRecordParams) (LedgerRecord, error) {
	return scanLedgerRecord(q.db.QueryRow(ctx, getLedgerRecord, arg.ID, arg.Ledger))
}

const getLedgerRecordByKeyForUpdate = `
SELECT ` + recordColumns + `
FROM ledger_records
WHERE ledger = $1 AND outlet_id = $2 AND record_date = $3 AND gas_variant = $4
FOR UPDATE
`

type GetLedgerRecordByKeyForUpdateParams struct {
	Ledger     Ledger
	OutletID   uuid.UUID
	RecordDate pgtype.Date
	GasVariant GasVariant
}

// GetLedgerRecordByKeyForUpdate fetches the unique record for a natural key
// (ledger, outlet, day, variant), locking the row for the calling transaction.
func (q *Queries) GetLedgerRecordByKeyForUpdate(ctx context.Context, arg GetLedgerRecordByKeyForUpdateParams) (LedgerRecord, error) {
	return scanLedgerRecord(q.db.QueryRow(ctx, getLedgerRecordByKeyForUpdate,
		arg.Ledger, arg.OutletID, arg.RecordDate, arg.GasVariant))
}

const createLedgerRecord = `
INSERT INTO ledger_records (
	ledger, outlet_id, record_date, gas_variant,
	normal_qty, discretionary_qty, tag, quota_snapshot
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + recordColumns + `
`

type CreateLedgerRecordParams struct {
	Ledger           Ledger
	OutletID         uuid.UUID
	RecordDate       pgtype.Date
	GasVariant       GasVariant
	NormalQty        int32
	DiscretionaryQty int32
	Tag              string
	QuotaSnapshot    pgtype.Int4
}

func (q *Queries) CreateLedgerRecord(ctx context.Context, arg CreateLedgerRecordParams) (LedgerRecord, error) {
	return scanLedgerRecord(q.db.QueryRow(ctx, createLedgerRecord,
		arg.Ledger,
		arg.OutletID,
		arg.RecordDate,
		arg.GasVariant,
		arg.NormalQty,
		arg.DiscretionaryQty,
		arg.Tag,
		arg.QuotaSnapshot,
	))
}

const updateLedgerRecord = `
UPDATE ledger_records
SET normal_qty = $3, discretionary_qty = $4, tag = $5, updated_at = NOW()
WHERE id = $1 AND ledger = $2
RETURNING ` + recordColumns + `
`

type UpdateLedgerRecordParams struct {
	ID               uuid.UUID
	Ledger           Ledger
	NormalQty        int32
	DiscretionaryQty int32
	Tag              string
}

func (q *Queries) UpdateLedgerRecord(ctx context.Context, arg UpdateLedgerRecordParams) (LedgerRecord, error) {
	return scanLedgerRecord(q.db.QueryRow(ctx, updateLedgerRecord,
		arg.ID, arg.Ledger, arg.NormalQty, arg.DiscretionaryQty, arg.Tag))
}

const deleteLedgerRecord = `
DELETE FROM ledger_records
WHERE id = $1 AND ledger = $2
RETURNING id
`

type DeleteLedgerRecordParams struct {
	ID     uuid.UUID
	Ledger Ledger
}

func (q *Queries) DeleteLedgerRecord(ctx context.Context, arg DeleteLedgerRecordParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteLedgerRecord, arg.ID, arg.Ledger).Scan(&id)
	return id, err
}

const listLedgerRecords = `
SELECT r.id, r.ledger, r.outlet_id, r.record_date, r.gas_variant,
	r.normal_qty, r.discretionary_qty, r.tag, r.quota_snapshot,
	r.created_at, r.updated_at,
	o.code AS outlet_code, o.name AS outlet_name, o.monthly_quota
FROM ledger_records r
JOIN outlets o ON o.id = r.outlet_id
WHERE r.ledger = $1
	AND r.record_date >= $2
	AND r.record_date <= $3
	AND ($4::uuid IS NULL OR r.outlet_id = $4)
	AND ($5::text IS NULL OR r.tag = $5)
	AND ($6::text IS NULL OR r.gas_variant = $6)
ORDER BY o.code, r.record_date, r.gas_variant
`

type ListLedgerRecordsParams struct {
	Ledger     Ledger
	DateFrom   pgtype.Date
	DateTo     pgtype.Date
	OutletID   pgtype.UUID
	Tag        pgtype.Text
	GasVariant pgtype.Text
}

type ListLedgerRecordsRow struct {
	ID               uuid.UUID
	Ledger           Ledger
	OutletID         uuid.UUID
	RecordDate       pgtype.Date
	GasVariant       GasVariant
	NormalQty        int32
	DiscretionaryQty int32
	Tag              string
	QuotaSnapshot    pgtype.Int4
	CreatedAt        time.Time
	UpdatedAt        time.Time
	OutletCode       string
	OutletName       string
	MonthlyQuota     int32
}

// ListLedgerRecords returns records joined with their outlet, inside an
// inclusive date range, with optional outlet/tag/variant filters.
func (q *Queries) ListLedgerRecords(ctx context.Context, arg ListLedgerRecordsParams) ([]ListLedgerRecordsRow, error) {
	rows, err := q.db.Query(ctx, listLedgerRecords,
		arg.Ledger,
		arg.DateFrom,
		arg.DateTo,
		arg.OutletID,
		arg.Tag,
		arg.GasVariant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLedgerRecordsRow
	for rows.Next() {
		var r ListLedgerRecordsRow
		if err := rows.Scan(
			&r.ID,
			&r.Ledger,
			&r.OutletID,
			&r.RecordDate,
			&r.GasVariant,
			&r.NormalQty,
			&r.DiscretionaryQty,
			&r.Tag,
			&r.QuotaSnapshot,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.OutletCode,
			&r.OutletName,
			&r.MonthlyQuota,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deleteLedgerRecordsInRange = `
DELETE FROM ledger_records
WHERE ledger = $1
	AND gas_variant = $2
	AND record_date >= $3
	AND record_date <= $4
	AND outlet_id = ANY($5::uuid[])
`

type DeleteLedgerRecordsInRangeParams struct {
	Ledger     Ledger
	GasVariant GasVariant
	DateFrom   pgtype.Date
	DateTo     pgtype.Date
	OutletIds  []uuid.UUID
}

// DeleteLedgerRecordsInRange removes every record in the scope and reports
// how many rows went away.
func (q *Queries) DeleteLedgerRecordsInRange(ctx context.Context, arg DeleteLedgerRecordsInRangeParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteLedgerRecordsInRange,
		arg.Ledger,
		arg.GasVariant,
		arg.DateFrom,
		arg.DateTo,
		arg.OutletIds,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const tryAdvisoryXactLock = `
SELECT pg_try_advisory_xact_lock($1)
`

// TryAdvisoryXactLock attempts a transaction-scoped advisory lock without
// blocking. The lock is released when the calling transaction ends.
func (q *Queries) TryAdvisoryXactLock(ctx context.Context, key int64) (bool, error) {
	var acquired bool
	err := q.db.QueryRow(ctx, tryAdvisoryXactLock, key).Scan(&acquired)
	return acquired, err
}
