package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worstlover/telegrambot/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists signals a concurrent create won for the same telegram id.
	ErrUserExists = errors.New("user already exists")

	ErrNameTaken      = errors.New("display name already taken")
	ErrNameAlreadySet = errors.New("display name already set")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_id, display_name, display_name_set, last_message_at, created_at
FROM users
WHERE telegram_id = $1
`, telegramID).Scan(&user.ID, &user.TelegramID, &user.DisplayName, &user.DisplayNameSet, &user.LastMessageAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by telegram_id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// CreateWithName inserts a new identity with an assigned display name.
// ErrNameTaken means the name is held by another user; ErrUserExists
// means the telegram id was created concurrently. Callers retry with the
// next candidate name or re-read accordingly.
func (r *UserRepo) CreateWithName(ctx context.Context, telegramID int64, displayName string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 || strings.TrimSpace(displayName) == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (telegram_id, display_name, display_name_set, created_at)
VALUES ($1, $2, FALSE, NOW())
RETURNING id, telegram_id, display_name, display_name_set, last_message_at, created_at
`, telegramID, displayName).Scan(&user.ID, &user.TelegramID, &user.DisplayName, &user.DisplayNameSet, &user.LastMessageAt, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "telegram_id") {
				return model.User{}, ErrUserExists
			}
			return model.User{}, ErrNameTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// SetDisplayName claims the proposed name for the user. The rename flag
// check, the uniqueness check and the write run in one transaction so
// two concurrent claims on the same name cannot both succeed.
func (r *UserRepo) SetDisplayName(ctx context.Context, telegramID int64, name string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if telegramID <= 0 || name == "" {
		return fmt.Errorf("invalid display name payload")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var alreadySet bool
		err := tx.QueryRow(ctx, `
SELECT display_name_set
FROM users
WHERE telegram_id = $1
FOR UPDATE
`, telegramID).Scan(&alreadySet)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user row: %w", err)
		}
		if alreadySet {
			return ErrNameAlreadySet
		}

		var taken bool
		err = tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM users WHERE display_name = $1 AND telegram_id <> $2)
`, name, telegramID).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check display name: %w", err)
		}
		if taken {
			return ErrNameTaken
		}

		if _, err := tx.Exec(ctx, `
UPDATE users
SET display_name = $2, display_name_set = TRUE
WHERE telegram_id = $1
`, telegramID, name); err != nil {
			// The unique index backs the check above for writers that
			// committed between the two statements.
			if isUniqueViolation(err) {
				return ErrNameTaken
			}
			return fmt.Errorf("set display name: %w", err)
		}

		return nil
	})
}

// TouchLastSubmission records the wall-clock time of an accepted
// submission on the identity row. The rate gate keeps its own copy; this
// one is for audit.
func (r *UserRepo) TouchLastSubmission(ctx context.Context, telegramID int64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return fmt.Errorf("invalid telegram_id")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET last_message_at = $2
WHERE telegram_id = $1
`, telegramID, at); err != nil {
		return fmt.Errorf("touch last submission: %w", err)
	}

	return nil
}
