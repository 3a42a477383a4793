package redis

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

func TestNewLockerWithoutAddrIsLocal(t *testing.T) {
	l, err := NewLocker(logger.Nop(), "  ")
	if err != nil {
		t.Fatalf("NewLocker: %v", err)
	}
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if _, ok, err := l.Acquire(ctx, "k", time.Minute); err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.Acquire(ctx, "other", time.Minute); !ok {
		t.Fatalf("distinct keys must not block each other")
	}
	release()
	release()
	release2, ok, err := l.Acquire(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	release2()
}

func TestLocalLockerDoneMarkerExpires(t *testing.T) {
	now := time.Date(2026, time.October, 18, 6, 0, 0, 0, time.UTC)
	l := newLocalLocker(func() time.Time { return now })
	ctx := context.Background()

	if done, _ := l.IsDone(ctx, "rollup:lock:week:2026-10-11"); done {
		t.Fatalf("unmarked key reported done")
	}
	if err := l.MarkDone(ctx, "rollup:lock:week:2026-10-11", time.Hour); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if done, _ := l.IsDone(ctx, "rollup:lock:week:2026-10-11"); !done {
		t.Fatalf("marked key not reported done")
	}
	now = now.Add(time.Hour)
	if done, _ := l.IsDone(ctx, "rollup:lock:week:2026-10-11"); done {
		t.Fatalf("done marker should lapse after its ttl")
	}
}

func TestKeepAliveRenewsUntilStopped(t *testing.T) {
	var renewals atomic.Int32
	stop := keepAlive(minRenewInterval, func(context.Context) (bool, error) {
		renewals.Add(1)
		return true, nil
	}, logger.Nop())

	deadline := time.Now().Add(2 * time.Second)
	for renewals.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(minRenewInterval)
	}
	stop()
	stop()
	seen := renewals.Load()
	if seen < 3 {
		t.Fatalf("expected repeated renewals, got %d", seen)
	}
	time.Sleep(5 * minRenewInterval)
	if after := renewals.Load(); after != seen {
		t.Fatalf("renewed after stop: before=%d after=%d", seen, after)
	}
}

func TestKeepAliveStopsWhenLeaseLost(t *testing.T) {
	var renewals atomic.Int32
	stop := keepAlive(minRenewInterval, func(context.Context) (bool, error) {
		switch renewals.Add(1) {
		case 1:
			return false, errors.New("timeout")
		case 2:
			return false, nil
		default:
			return true, nil
		}
	}, logger.Nop())

	// An error keeps the loop going; a lost lease ends it.
	time.Sleep(20 * minRenewInterval)
	if got := renewals.Load(); got != 2 {
		t.Fatalf("expected the loop to end after the lease was lost, renewals=%d", got)
	}
	stop()
}

func TestLockerExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	l, err := NewLocker(logger.Nop(), addr)
	if err != nil {
		t.Fatalf("NewLocker: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	key := "test:lock:" + uuid.NewString()
	release, ok, err := l.Acquire(ctx, key, 300*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	// Outlive the lease; renewal keeps it held.
	time.Sleep(time.Second)
	if _, ok, err := l.Acquire(ctx, key, time.Minute); err != nil || ok {
		t.Fatalf("second acquire should be refused: ok=%v err=%v", ok, err)
	}
	release()
	release2, ok, err := l.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	release2()

	if err := l.MarkDone(ctx, key, time.Minute); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if done, err := l.IsDone(ctx, key); err != nil || !done {
		t.Fatalf("IsDone: done=%v err=%v", done, err)
	}
}
