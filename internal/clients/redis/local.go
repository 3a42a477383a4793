package redis

import (
	"context"
	"sync"
	"time"
)

// localLocker serializes batch runs inside one process and remembers finished
// periods until their ttl lapses. Holds never expire; release is the only way out.
type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
	done map[string]time.Time
	now  func() time.Time
}

// LocalLocker is the locker used when no Redis address is configured.
func LocalLocker() Locker { return newLocalLocker(time.Now) }

func newLocalLocker(now func() time.Time) *localLocker {
	return &localLocker{
		held: map[string]struct{}{},
		done: map[string]time.Time{},
		now:  now,
	}
}

func (l *localLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

func (l *localLocker) MarkDone(_ context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done[key] = l.now().Add(ttl)
	return nil
}

func (l *localLocker) IsDone(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.done[key]
	if !ok {
		return false, nil
	}
	if !l.now().Before(exp) {
		delete(l.done, key)
		return false, nil
	}
	return true, nil
}

func (l *localLocker) Close() error { return nil }
