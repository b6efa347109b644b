package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	cooldownKeyPrefix = "relay:lastsub:"

	// cooldownRetention only bounds key growth. The gate compares
	// timestamps itself, so a shrinking or growing window never reads a
	// stale TTL.
	cooldownRetention = 48 * time.Hour
)

// CooldownRepo stores the last accepted submission time per user.
type CooldownRepo struct {
	client *goredis.Client
}

func NewCooldownRepo(client *goredis.Client) *CooldownRepo {
	return &CooldownRepo{client: client}
}

func (r *CooldownRepo) LastSubmission(ctx context.Context, userID int64) (time.Time, bool, error) {
	if r.client == nil {
		return time.Time{}, false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return time.Time{}, false, fmt.Errorf("invalid user id")
	}

	val, err := r.client.Get(ctx, cooldownKey(userID)).Result()
	if err == goredis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get last submission: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last submission %q: %w", val, err)
	}

	return time.Unix(unix, 0), true, nil
}

func (r *CooldownRepo) SetLastSubmission(ctx context.Context, userID int64, at time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	value := strconv.FormatInt(at.Unix(), 10)
	if err := r.client.Set(ctx, cooldownKey(userID), value, cooldownRetention).Err(); err != nil {
		return fmt.Errorf("set last submission: %w", err)
	}

	return nil
}

func cooldownKey(userID int64) string {
	return cooldownKeyPrefix + strconv.FormatInt(userID, 10)
}
