package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BannedWordsRepo struct {
	pool *pgxpool.Pool
}

func NewBannedWordsRepo(pool *pgxpool.Pool) *BannedWordsRepo {
	return &BannedWordsRepo{pool: pool}
}

// Add stores a banned word. Adding a word that is already present is a
// no-op, not an error.
func (r *BannedWordsRepo) Add(ctx context.Context, word string, addedBy int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(word) == "" {
		return fmt.Errorf("banned word is required")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO banned_words (word, added_by)
VALUES ($1, $2)
ON CONFLICT (word) DO NOTHING
`, word, addedBy); err != nil {
		return fmt.Errorf("add banned word: %w", err)
	}

	return nil
}

func (r *BannedWordsRepo) Remove(ctx context.Context, word string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(word) == "" {
		return false, nil
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM banned_words WHERE word = $1
`, word)
	if err != nil {
		return false, fmt.Errorf("remove banned word: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// List returns the word set ordered for display.
func (r *BannedWordsRepo) List(ctx context.Context) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT word FROM banned_words ORDER BY word
`)
	if err != nil {
		return nil, fmt.Errorf("list banned words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("scan banned word: %w", err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banned words: %w", err)
	}

	return words, nil
}

// Seed inserts the default word list, skipping entries that exist.
func (r *BannedWordsRepo) Seed(ctx context.Context, words []string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	for _, word := range words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		if _, err := r.pool.Exec(ctx, `
INSERT INTO banned_words (word)
VALUES ($1)
ON CONFLICT (word) DO NOTHING
`, word); err != nil {
			return fmt.Errorf("seed banned word: %w", err)
		}
	}

	return nil
}
