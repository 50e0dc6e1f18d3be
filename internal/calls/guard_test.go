package calls

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) *DispatchGuard {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewDispatchGuard(rdb)
}

func TestDispatchGuardFirstCallerWins(t *testing.T) {
	guard := newTestGuard(t)
	ctx := context.Background()

	ok, err := guard.Acquire(ctx, "batch-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should win")
	}

	ok, err = guard.Acquire(ctx, "batch-1")
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if ok {
		t.Fatal("second acquire should lose")
	}
}

func TestDispatchGuardDistinctKeys(t *testing.T) {
	guard := newTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "batch-1"); !ok {
		t.Fatal("expected acquire on batch-1")
	}
	if ok, _ := guard.Acquire(ctx, "batch-2"); !ok {
		t.Fatal("expected acquire on unrelated batch-2")
	}
}

func TestDispatchGuardReleaseAllowsRetry(t *testing.T) {
	guard := newTestGuard(t)
	ctx := context.Background()

	if ok, _ := guard.Acquire(ctx, "batch-1"); !ok {
		t.Fatal("expected first acquire to win")
	}
	if err := guard.Release(ctx, "batch-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if ok, _ := guard.Acquire(ctx, "batch-1"); !ok {
		t.Fatal("expected acquire to win after release")
	}
}

func TestDispatchGuardNilRedis(t *testing.T) {
	guard := NewDispatchGuard(nil)
	if ok, err := guard.Acquire(context.Background(), "batch-1"); err != nil || !ok {
		t.Fatalf("nil-redis guard should always win, got ok=%v err=%v", ok, err)
	}
}
