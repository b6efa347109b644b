package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

// Add grants admin rights. Granting an existing admin is a no-op; the
// grantor is kept for audit only.
func (r *AdminRepo) Add(ctx context.Context, telegramID, addedBy int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return fmt.Errorf("invalid telegram_id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO admins (telegram_id, added_by)
VALUES ($1, $2)
ON CONFLICT (telegram_id) DO NOTHING
`, telegramID, addedBy); err != nil {
		return fmt.Errorf("add admin: %w", err)
	}

	return nil
}

func (r *AdminRepo) Remove(ctx context.Context, telegramID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return false, fmt.Errorf("invalid telegram_id")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM admins WHERE telegram_id = $1
`, telegramID)
	if err != nil {
		return false, fmt.Errorf("remove admin: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *AdminRepo) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return false, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM admins WHERE telegram_id = $1)
`, telegramID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}

	return exists, nil
}

func (r *AdminRepo) List(ctx context.Context) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT telegram_id FROM admins ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	return ids, nil
}
