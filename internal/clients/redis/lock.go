package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// DefaultLease is used when Acquire is given no ttl.
const DefaultLease = 2 * time.Minute

// Locker guards a batch run across processes. Acquire reports false when another
// holder owns key; release must be called only after a successful acquire. A held
// lease is renewed until release, so a holder that dies frees key within one ttl.
//
// MarkDone and IsDone record that the work behind key finished, for callers that
// want to skip a period that already ran.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
	MarkDone(ctx context.Context, key string, ttl time.Duration) error
	IsDone(ctx context.Context, key string) (bool, error)
	Close() error
}

// releaseScript deletes the key only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript pushes the expiry out only while the key still carries our token.
var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

func doneKey(key string) string { return key + ":done" }

type lock struct {
	log *logger.Logger
	rdb goredis.UniversalClient
}

// NewLocker connects to addr and pings it. An empty addr yields an in-process locker.
func NewLocker(log *logger.Logger, addr string) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return LocalLocker(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &lock{log: log.With("client", "RedisLocker"), rdb: rdb}, nil
}

// NewLockerFromClient wraps an existing client.
func NewLockerFromClient(log *logger.Logger, rdb goredis.UniversalClient) Locker {
	return &lock{log: log.With("client", "RedisLocker"), rdb: rdb}
}

func (l *lock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		ttl = DefaultLease
	}
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	stop := keepAlive(ttl/3, func(rctx context.Context) (bool, error) {
		n, err := renewScript.Run(rctx, l.rdb, []string{key}, token, ttl.Milliseconds()).Int()
		return n == 1, err
	}, l.log.With("key", key))

	release := func() {
		stop()
		// The run's context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Failed to release batch lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}

func (l *lock) MarkDone(ctx context.Context, key string, ttl time.Duration) error {
	if err := l.rdb.Set(ctx, doneKey(key), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", doneKey(key), err)
	}
	return nil
}

func (l *lock) IsDone(ctx context.Context, key string) (bool, error) {
	n, err := l.rdb.Exists(ctx, doneKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", doneKey(key), err)
	}
	return n == 1, nil
}

func (l *lock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
