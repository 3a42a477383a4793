package rollup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const (
	ActiveWindowShort = 7 * 24 * time.Hour
	ActiveWindowLong  = 30 * 24 * time.Hour

	SkipReasonLocked    = "locked"
	SkipReasonCompleted = "completed"

	defaultLockTTL = 2 * time.Minute
)

// ActiveWindow is the lookback that defines an active user for kind.
func ActiveWindow(kind periods.Kind) time.Duration {
	if kind == periods.Month {
		return ActiveWindowLong
	}
	return ActiveWindowShort
}

type ErrorDetail struct {
	UserID string `json:"userId"`
	Error  string `json:"error"`
}

type BatchResult struct {
	Processed    int           `json:"processed"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	ErrorDetails []ErrorDetail `json:"errorDetails"`
	SkipReason   string        `json:"skipReason,omitempty"`
}

// Locker is satisfied by clients/redis.Locker.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
	MarkDone(ctx context.Context, key string, ttl time.Duration) error
	IsDone(ctx context.Context, key string) (bool, error)
}

type BatchConfig struct {
	Concurrency int
	LockTTL     time.Duration
}

type BatchRunner struct {
	engine  *Engine
	source  ActivitySource
	locker  Locker
	cfg     BatchConfig
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewBatchRunner builds a runner. locker and metrics may be nil.
func NewBatchRunner(engine *Engine, source ActivitySource, locker Locker, cfg BatchConfig, baseLog *logger.Logger, metrics *observability.Metrics) *BatchRunner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &BatchRunner{
		engine:  engine,
		source:  source,
		locker:  locker,
		cfg:     cfg,
		log:     baseLog.With("component", "BatchRunner"),
		metrics: metrics,
	}
}

// Run generates the kind's summary for every active user. Only a failure to list
// users is returned as an error; per-user failures land in ErrorDetails.
func (b *BatchRunner) Run(ctx context.Context, kind periods.Kind, now time.Time) (BatchResult, error) {
	if !kind.Valid() {
		return BatchResult{}, fmt.Errorf("unknown rollup kind %q", kind)
	}
	ctx, span := observability.StartSpan(ctx, "rollup.batch", attribute.String("kind", string(kind)))
	defer span.End()

	start := time.Now()
	res := BatchResult{ErrorDetails: []ErrorDetail{}}

	if b.locker != nil {
		key := LockKey(kind, now)
		release, ok, err := b.locker.Acquire(ctx, key, b.cfg.LockTTL)
		if err != nil {
			b.metrics.ObserveBatchRun(string(kind), "lock_error", time.Since(start))
			return BatchResult{}, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			b.log.Info("Batch already running elsewhere, skipping", "kind", kind, "lock_key", key)
			b.metrics.ObserveBatchRun(string(kind), SkipReasonLocked, time.Since(start))
			res.SkipReason = SkipReasonLocked
			return res, nil
		}
		defer release()
	}

	users, err := b.source.ListActiveUsers(ctx, now.Add(-ActiveWindow(kind)))
	if err != nil {
		b.metrics.ObserveBatchRun(string(kind), "preflight_error", time.Since(start))
		return BatchResult{}, fmt.Errorf("list active users: %w", err)
	}
	b.log.Info("Batch started", "kind", kind, "users", len(users), "concurrency", b.cfg.Concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			status, err := b.runUser(gctx, kind, userID, now)

			mu.Lock()
			defer mu.Unlock()
			res.Processed++
			switch {
			case err != nil:
				res.Errors++
				res.ErrorDetails = append(res.ErrorDetails, ErrorDetail{UserID: userID.String(), Error: err.Error()})
				b.metrics.IncBatchUser(string(kind), "error")
				b.log.Warn("Rollup failed for user", "kind", kind, "user_id", userID, "error", err)
			case status == StatusCreated:
				res.Created++
				b.metrics.IncBatchUser(string(kind), string(status))
			default:
				res.Skipped++
				b.metrics.IncBatchUser(string(kind), string(status))
			}
			// Per-user failures never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	outcome := "ok"
	if res.Errors > 0 {
		outcome = "partial"
	} else if b.locker != nil {
		key := LockKey(kind, now)
		if err := b.locker.MarkDone(ctx, key, doneTTL(kind)); err != nil {
			b.log.Warn("Failed to record finished batch", "kind", kind, "lock_key", key, "error", err)
		}
	}
	b.metrics.ObserveBatchRun(string(kind), outcome, time.Since(start))
	b.log.Info("Batch finished",
		"kind", kind,
		"processed", res.Processed,
		"created", res.Created,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"elapsed", time.Since(start).String(),
	)
	return res, nil
}

// RunIfPending is Run unless a previous run for the same period finished without
// errors, in which case it returns a result with SkipReason completed.
func (b *BatchRunner) RunIfPending(ctx context.Context, kind periods.Kind, now time.Time) (BatchResult, error) {
	if !kind.Valid() {
		return BatchResult{}, fmt.Errorf("unknown rollup kind %q", kind)
	}
	if b.locker != nil {
		key := LockKey(kind, now)
		done, err := b.locker.IsDone(ctx, key)
		if err != nil {
			b.log.Warn("Could not read finished-batch marker, running anyway", "kind", kind, "lock_key", key, "error", err)
		} else if done {
			b.log.Debug("Batch already finished for this period", "kind", kind, "lock_key", key)
			b.metrics.ObserveBatchRun(string(kind), SkipReasonCompleted, 0)
			return BatchResult{ErrorDetails: []ErrorDetail{}, SkipReason: SkipReasonCompleted}, nil
		}
	}
	return b.Run(ctx, kind, now)
}

func (b *BatchRunner) runUser(ctx context.Context, kind periods.Kind, userID uuid.UUID, now time.Time) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	switch kind {
	case periods.Day:
		out, err := b.engine.GenerateDaily(ctx, userID, now)
		return out.Status, err
	case periods.Week:
		out, err := b.engine.GenerateWeekly(ctx, userID, now)
		return out.Status, err
	default:
		out, err := b.engine.GenerateMonthly(ctx, userID, now)
		return out.Status, err
	}
}

// doneTTL keeps a finished marker for longer than the period can be re-run for.
func doneTTL(kind periods.Kind) time.Duration {
	switch kind {
	case periods.Day:
		return 2 * 24 * time.Hour
	case periods.Week:
		return 14 * 24 * time.Hour
	default:
		return 62 * 24 * time.Hour
	}
}

// LockKey names the cross-process lock for one kind and period.
func LockKey(kind periods.Kind, now time.Time) string {
	var period string
	switch kind {
	case periods.Day:
		period = periods.StartOfDay(now).Format("2006-01-02")
	case periods.Week:
		period = periods.WeekBounds(now).Start.Format("2006-01-02")
	default:
		period = periods.MonthBounds(now).Start.Format("2006-01")
	}
	return fmt.Sprintf("rollup:lock:%s:%s", kind, period)
}
