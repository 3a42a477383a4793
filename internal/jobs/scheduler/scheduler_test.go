package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type recordingRunner struct {
	mu    sync.Mutex
	kinds []periods.Kind
	err   error
}

func (r *recordingRunner) Run(_ context.Context, kind periods.Kind, _ time.Time) (rollup.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	return rollup.BatchResult{Processed: 1}, r.err
}

type countingProcessor struct {
	calls int
}

func (p *countingProcessor) ProcessBatch(context.Context, time.Time) (notify.ProcessResult, error) {
	p.calls++
	return notify.ProcessResult{}, nil
}

func TestNewRegistersConfiguredJobs(t *testing.T) {
	s, err := New(logger.Nop(), &recordingRunner{}, &countingProcessor{}, Specs{
		Daily:   "0 22 * * *",
		Weekly:  "0 6 * * 1",
		Monthly: "0 6 1 * *",
		Notify:  "",
	}, time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Entries(); got != 3 {
		t.Fatalf("entries: got=%d want=3", got)
	}
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(logger.Nop(), &recordingRunner{}, &countingProcessor{}, Specs{Daily: "every day"}, time.UTC)
	if err == nil {
		t.Fatalf("expected an error for a malformed spec")
	}
}

func TestJobsCallRunners(t *testing.T) {
	runner := &recordingRunner{}
	proc := &countingProcessor{}
	s, err := New(logger.Nop(), runner, proc, Specs{}, time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.runRollup(periods.Week)
	runner.err = errors.New("boom")
	s.runRollup(periods.Month)
	s.runNotifications()

	if len(runner.kinds) != 2 || runner.kinds[0] != periods.Week || runner.kinds[1] != periods.Month {
		t.Fatalf("unexpected kinds: %v", runner.kinds)
	}
	if proc.calls != 1 {
		t.Fatalf("processor calls: got=%d want=1", proc.calls)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
