package rategate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	redisrepo "github.com/worstlover/telegrambot/internal/repo/redis"
)

type fixedWindow time.Duration

func (w fixedWindow) RateLimitWindow() time.Duration { return time.Duration(w) }

func newRedisStore(t *testing.T) *redisrepo.CooldownRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisrepo.NewCooldownRepo(client)
}

func TestMaySubmitFirstMessage(t *testing.T) {
	svc := NewService(newRedisStore(t), fixedWindow(5*time.Minute), zap.NewNop())

	ok, wait, err := svc.MaySubmit(context.Background(), 100)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if !ok || wait != 0 {
		t.Fatalf("first message = (%v, %v), want allowed with no wait", ok, wait)
	}
}

func TestMaySubmitWithinWindow(t *testing.T) {
	svc := NewService(newRedisStore(t), fixedWindow(5*time.Minute), zap.NewNop())
	ctx := context.Background()

	if err := svc.RecordSubmission(ctx, 100); err != nil {
		t.Fatalf("record submission: %v", err)
	}

	ok, wait, err := svc.MaySubmit(ctx, 100)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if ok {
		t.Fatalf("submission inside cooldown was allowed")
	}
	if wait != 5*time.Minute {
		t.Fatalf("reported window = %v, want full 5m", wait)
	}
}

func TestMaySubmitAfterWindow(t *testing.T) {
	store := newRedisStore(t)
	svc := NewService(store, fixedWindow(5*time.Minute), zap.NewNop())
	ctx := context.Background()

	past := time.Now().Add(-6 * time.Minute)
	if err := store.SetLastSubmission(ctx, 100, past); err != nil {
		t.Fatalf("seed cooldown: %v", err)
	}

	ok, wait, err := svc.MaySubmit(ctx, 100)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if !ok || wait != 0 {
		t.Fatalf("expired cooldown = (%v, %v), want allowed", ok, wait)
	}
}

func TestMaySubmitAtExactWindowBoundary(t *testing.T) {
	store := newRedisStore(t)
	svc := NewService(store, fixedWindow(5*time.Minute), zap.NewNop())
	ctx := context.Background()

	// Elapsed time equal to the window is enough; the gate only blocks
	// strictly inside it.
	past := time.Now().Add(-5 * time.Minute)
	if err := store.SetLastSubmission(ctx, 100, past); err != nil {
		t.Fatalf("seed cooldown: %v", err)
	}

	ok, wait, err := svc.MaySubmit(ctx, 100)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if !ok || wait != 0 {
		t.Fatalf("boundary = (%v, %v), want allowed with no wait", ok, wait)
	}
}

func TestMaySubmitDisabledWindow(t *testing.T) {
	store := newRedisStore(t)
	svc := NewService(store, fixedWindow(0), zap.NewNop())
	ctx := context.Background()

	if err := svc.RecordSubmission(ctx, 100); err != nil {
		t.Fatalf("record submission: %v", err)
	}

	ok, _, err := svc.MaySubmit(ctx, 100)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if !ok {
		t.Fatalf("zero window must disable the gate")
	}
}

func TestMaySubmitIsPerUser(t *testing.T) {
	svc := NewService(newRedisStore(t), fixedWindow(5*time.Minute), zap.NewNop())
	ctx := context.Background()

	if err := svc.RecordSubmission(ctx, 100); err != nil {
		t.Fatalf("record submission: %v", err)
	}

	ok, _, err := svc.MaySubmit(ctx, 200)
	if err != nil {
		t.Fatalf("may submit: %v", err)
	}
	if !ok {
		t.Fatalf("cooldown for user 100 blocked user 200")
	}
}

func TestMaySubmitBlocksOnStoreError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisrepo.NewCooldownRepo(client)
	svc := NewService(store, fixedWindow(5*time.Minute), zap.NewNop())

	mr.Close()

	ok, _, err := svc.MaySubmit(context.Background(), 100)
	if err == nil {
		t.Fatalf("expected error from closed store")
	}
	if ok {
		t.Fatalf("store failure must not allow the submission")
	}
}
