package database

import (
	"context"

	"github.com/google/uuid"
)

const listActiveOutlets = `
SELECT id, code, name, monthly_quota, is_active, created_at, updated_at
FROM outlets
WHERE is_active = TRUE
ORDER BY code
`

// ListActiveOutlets returns every active outlet ordered by code.
func (q *Queries) ListActiveOutlets(ctx context.Context) ([]Outlet, error) {
	rows, err := q.db.Query(ctx, listActiveOutlets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Outlet
	for rows.Next() {
		var o Outlet
		if err := rows.Scan(
			&o.ID,
			&o.Code,
			&o.Name,
			&o.MonthlyQuota,
			&o.IsActive,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const getOutlet = `
SELECT id, code, name, monthly_quota, is_active, created_at, updated_at
FROM outlets
WHERE id = $1
`

func (q *Queries) GetOutlet(ctx context.Context, id uuid.UUID) (Outlet, error) {
	row := q.db.QueryRow(ctx, getOutlet, id)
	var o Outlet
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.Name,
		&o.MonthlyQuota,
		&o.IsActive,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}
