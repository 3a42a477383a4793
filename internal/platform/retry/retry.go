// Package retry applies a fixed-count, flat-delay retry policy to store calls made
// on the request path.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
	Log         *logger.Logger
}

// Store is the request-path policy: 3 attempts, 1s apart, on transient store errors.
func Store(log *logger.Logger) Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       time.Second,
		Retryable:   dberr.IsTransient,
		Log:         log,
	}
}

// Do runs fn until it succeeds, fails permanently or attempts run out. Exhausting
// attempts on a retryable error yields an apierr store_unavailable error.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = dberr.IsTransient
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if p.Log != nil && attempt < maxAttempts {
			p.Log.Warn("Transient store error, retrying",
				"op", op,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err,
			)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(operation, policy)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if retryable(err) {
		if p.Log != nil {
			p.Log.Error("Store unavailable after retries", "op", op, "attempts", attempt, "error", err)
		}
		return apierr.StoreUnavailable(err)
	}
	return err
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
