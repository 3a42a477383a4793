package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type RollupRunner interface {
	Run(ctx context.Context, kind periods.Kind, now time.Time) (rollup.BatchResult, error)
}

type NotificationProcessor interface {
	ProcessBatch(ctx context.Context, now time.Time) (notify.ProcessResult, error)
}

// Specs are standard five-field cron expressions. An empty spec disables that job.
type Specs struct {
	Daily   string
	Weekly  string
	Monthly string
	Notify  string
}

// jobTimeout bounds a single triggered run.
const jobTimeout = 30 * time.Minute

// Scheduler triggers the rollup batches and the notification process in-process.
// Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron      *cron.Cron
	log       *logger.Logger
	rollups   RollupRunner
	processor NotificationProcessor
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(baseLog *logger.Logger, rollups RollupRunner, processor NotificationProcessor, specs Specs, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	log := baseLog.With("component", "Scheduler")
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:       log,
		rollups:   rollups,
		processor: processor,
		now:       func() time.Time { return time.Now().In(loc) },
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"daily_rollup", specs.Daily, func() { s.runRollup(periods.Day) }},
		{"weekly_rollup", specs.Weekly, func() { s.runRollup(periods.Week) }},
		{"monthly_rollup", specs.Monthly, func() { s.runRollup(periods.Month) }},
		{"notifications", specs.Notify, s.runNotifications},
	}
	for _, j := range jobs {
		if j.spec == "" {
			log.Info("Job disabled", "job", j.name)
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
		log.Info("Job scheduled", "job", j.name, "spec", j.spec)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels in-flight runs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) runRollup(kind periods.Kind) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	start := time.Now()
	res, err := s.rollups.Run(ctx, kind, s.now())
	if err != nil {
		s.log.Error("Scheduled rollup failed", "kind", string(kind), "error", err)
		return
	}
	s.log.Info("Scheduled rollup finished",
		"kind", string(kind),
		"processed", res.Processed,
		"created", res.Created,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"skip_reason", res.SkipReason,
		"duration", time.Since(start),
	)
}

func (s *Scheduler) runNotifications() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	res, err := s.processor.ProcessBatch(ctx, s.now())
	if err != nil {
		s.log.Error("Scheduled notification processing failed", "error", err)
		return
	}
	s.log.Info("Scheduled notification processing finished",
		"processed", res.Processed,
		"created", res.Created,
		"errors", res.Errors,
	)
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
