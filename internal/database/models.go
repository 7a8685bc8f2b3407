package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Ledger distinguishes the two record books sharing one schema:
// executed deliveries vs. forward planning.
type Ledger string

const (
	LedgerDISTRIBUTION Ledger = "DISTRIBUTION"
	LedgerPLAN         Ledger = "PLAN"
)

type GasVariant string

const (
	GasVariant3KG  GasVariant = "3KG"
	GasVariant5KG  GasVariant = "5KG"
	GasVariant12KG GasVariant = "12KG"
)

// Outlet is a registered pangkalan entitled to a monthly subsidized quota.
// Owned by the outlet registry; this service only reads it.
type Outlet struct {
	ID           uuid.UUID
	Code         string
	Name         string
	MonthlyQuota int32
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LedgerRecord is one outlet-day-variant entry in either ledger.
// Tag is a payment type on DISTRIBUTION rows and a condition on PLAN rows.
// QuotaSnapshot is only set on PLAN rows.
type LedgerRecord struct {
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
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
