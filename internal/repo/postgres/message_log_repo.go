package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageLogRepo keeps an audit trail of submission outcomes.
type MessageLogRepo struct {
	pool *pgxpool.Pool
}

func NewMessageLogRepo(pool *pgxpool.Pool) *MessageLogRepo {
	return &MessageLogRepo{pool: pool}
}

func (r *MessageLogRepo) Record(ctx context.Context, userTelegramID int64, kind, status, reason string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userTelegramID <= 0 || kind == "" || status == "" {
		return fmt.Errorf("invalid message log payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO message_logs (user_telegram_id, kind, status, reason)
VALUES ($1, $2, $3, $4)
`, userTelegramID, kind, status, reason); err != nil {
		return fmt.Errorf("record message log: %w", err)
	}

	return nil
}
