package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worstlover/telegrambot/internal/domain/enums"
	"github.com/worstlover/telegrambot/internal/domain/model"
)

var ErrPendingItemNotFound = errors.New("pending item not found")

type PendingRepo struct {
	pool *pgxpool.Pool
}

func NewPendingRepo(pool *pgxpool.Pool) *PendingRepo {
	return &PendingRepo{pool: pool}
}

// Create stores a queued media item and returns its assigned id. Ids are
// monotonically increasing.
func (r *PendingRepo) Create(ctx context.Context, item model.PendingItem) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if item.UserTelegramID <= 0 || strings.TrimSpace(item.FileID) == "" || !item.Kind.Relayable() {
		return 0, fmt.Errorf("invalid pending item payload")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO pending_media (user_telegram_id, kind, file_id, caption, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id
`, item.UserTelegramID, string(item.Kind), item.FileID, item.Caption).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create pending item: %w", err)
	}

	return id, nil
}

func (r *PendingRepo) GetByID(ctx context.Context, id int64) (model.PendingItem, error) {
	if r.pool == nil {
		return model.PendingItem{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return model.PendingItem{}, fmt.Errorf("invalid pending item id")
	}

	var item model.PendingItem
	var kind string
	err := r.pool.QueryRow(ctx, `
SELECT id, user_telegram_id, kind, file_id, caption, created_at
FROM pending_media
WHERE id = $1
`, id).Scan(&item.ID, &item.UserTelegramID, &kind, &item.FileID, &item.Caption, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PendingItem{}, ErrPendingItemNotFound
		}
		return model.PendingItem{}, fmt.Errorf("get pending item: %w", err)
	}
	item.Kind = enums.ContentKind(kind)

	return item, nil
}

// Delete removes the item and reports whether a row was removed, so a
// second decision on the same id is a visible no-op.
func (r *PendingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return false, nil
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM pending_media WHERE id = $1
`, id)
	if err != nil {
		return false, fmt.Errorf("delete pending item: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PendingRepo) CountPending(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM pending_media
`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending items: %w", err)
	}

	return count, nil
}
