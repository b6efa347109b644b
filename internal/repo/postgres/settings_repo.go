package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSettingNotFound = errors.New("setting not found")

// Recognized settings keys.
const (
	SettingRequireApproval   = "require_approval"
	SettingRateLimitMinutes  = "rate_limit_minutes"
	SettingActivityStartHour = "activity_start_hour"
	SettingActivityEndHour   = "activity_end_hour"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("setting key is required")
	}

	var value string
	err := r.pool.QueryRow(ctx, `
SELECT value FROM settings WHERE key = $1
`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}

	return value, nil
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("setting key is required")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO settings (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
`, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}

// EnsureDefaults inserts any missing keys without touching existing
// values, so every recognized key has a value before the first check.
func (r *SettingsRepo) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	for key, value := range defaults {
		if _, err := r.pool.Exec(ctx, `
INSERT INTO settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO NOTHING
`, key, value); err != nil {
			return fmt.Errorf("ensure default setting %s: %w", key, err)
		}
	}

	return nil
}
