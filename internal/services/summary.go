package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const maxSummaryDays = 366

// DailyRange selects daily summaries either by trailing day count or by explicit
// inclusive dates. Start and End win when both are set.
type DailyRange struct {
	Days  int
	Start *time.Time
	End   *time.Time
}

type SummaryService interface {
	GenerateDaily(ctx context.Context, date *time.Time) (rollup.DailyOutcome, error)
	ListDaily(ctx context.Context, r DailyRange) ([]*types.DailySummary, error)
	ListWeekly(ctx context.Context, limit int) ([]*types.WeeklySummary, error)
	ListMonthly(ctx context.Context, limit int) ([]*types.MonthlySummary, error)
}

type summaryService struct {
	log       *logger.Logger
	engine    *rollup.Engine
	summaries repos.SummaryRepo
	now       Clock
}

func NewSummaryService(log *logger.Logger, engine *rollup.Engine, summaries repos.SummaryRepo, clock Clock) SummaryService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	return &summaryService{
		log:       log.With("service", "SummaryService"),
		engine:    engine,
		summaries: summaries,
		now:       clock,
	}
}

func (ss *summaryService) GenerateDaily(ctx context.Context, date *time.Time) (rollup.DailyOutcome, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return rollup.DailyOutcome{}, err
	}
	now := ss.now()
	day := now
	if date != nil {
		day = date.In(now.Location())
		if periods.StartOfDay(day).After(now) {
			return rollup.DailyOutcome{}, apierr.Validation("date cannot be in the future")
		}
	}
	out, err := ss.engine.GenerateDaily(ctx, userID, day)
	if err != nil {
		return out, fmt.Errorf("generate daily summary: %w", err)
	}
	return out, nil
}

func (ss *summaryService) ListDaily(ctx context.Context, r DailyRange) ([]*types.DailySummary, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ss.now()
	var start, end time.Time
	switch {
	case r.Start != nil && r.End != nil:
		start = periods.StartOfDay(r.Start.In(now.Location()))
		end = periods.EndOfDay(r.End.In(now.Location()))
		if end.Before(start) {
			return nil, apierr.Validation("endDate must not be before startDate")
		}
	default:
		days := r.Days
		if days <= 0 {
			days = 7
		}
		if days > maxSummaryDays {
			days = maxSummaryDays
		}
		end = periods.EndOfDay(now)
		start = periods.StartOfDay(now).AddDate(0, 0, -(days - 1))
	}
	return ss.summaries.ListDailyRange(dbctx.Context{Ctx: ctx}, userID, start, end)
}

func (ss *summaryService) ListWeekly(ctx context.Context, limit int) ([]*types.WeeklySummary, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 52 {
		limit = 4
	}
	return ss.summaries.ListWeekly(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (ss *summaryService) ListMonthly(ctx context.Context, limit int) ([]*types.MonthlySummary, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 24 {
		limit = 3
	}
	return ss.summaries.ListMonthly(dbctx.Context{Ctx: ctx}, userID, limit)
}
