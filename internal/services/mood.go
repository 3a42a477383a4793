package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/domain/wellness"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type MoodInput struct {
	Emoji string
	Rate  *int
	Date  *time.Time
}

// TrendPoint is one calendar day of a mood trend; days without a check-in carry nils.
type TrendPoint struct {
	Date      string  `json:"date"`
	MoodRate  *int    `json:"mood_rate"`
	MoodEmoji *string `json:"mood_emoji"`
}

type MoodService interface {
	// Upsert records the caller's mood for the given day (today by default). created
	// is false when an existing row was updated.
	Upsert(ctx context.Context, in MoodInput) (entry *types.MoodEntry, created bool, err error)
	Today(ctx context.Context) (*types.MoodEntry, error)
	Trends(ctx context.Context, days int) ([]TrendPoint, error)
	Recent(ctx context.Context) ([]*types.MoodEntry, error)
}

type moodService struct {
	log        *logger.Logger
	moods      repos.MoodRepo
	milestones MilestoneChecker
	now        Clock
}

func NewMoodService(log *logger.Logger, moods repos.MoodRepo, milestones MilestoneChecker, clock Clock) MoodService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	return &moodService{
		log:        log.With("service", "MoodService"),
		moods:      moods,
		milestones: milestonesOrNop(milestones),
		now:        clock,
	}
}

func (ms *moodService) Upsert(ctx context.Context, in MoodInput) (*types.MoodEntry, bool, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, false, err
	}
	emoji := strings.TrimSpace(in.Emoji)
	if emoji == "" {
		return nil, false, apierr.Validation("Mood emoji is required")
	}
	rate := wellness.DefaultMoodRate
	if in.Rate != nil {
		rate = *in.Rate
	}
	if rate < 1 || rate > 10 {
		return nil, false, apierr.Validation("mood_rate must be between 1 and 10")
	}
	now := ms.now()
	at := now
	if in.Date != nil {
		at = in.Date.In(now.Location())
	}

	dbc := dbctx.Context{Ctx: ctx}
	entry, created, err := ms.upsert(dbc, userID, at, emoji, rate)
	if err != nil {
		return nil, false, err
	}
	ms.milestones.CheckQuietly(ctx, userID, now)
	return entry, created, nil
}

func (ms *moodService) upsert(dbc dbctx.Context, userID uuid.UUID, at time.Time, emoji string, rate int) (*types.MoodEntry, bool, error) {
	key := periods.DayKeyOf(at)
	existing, err := ms.moods.GetForDay(dbc, userID, key)
	if err != nil {
		return nil, false, fmt.Errorf("load mood: %w", err)
	}
	if existing != nil {
		if err := ms.moods.Update(dbc, existing.ID, emoji, rate); err != nil {
			return nil, false, fmt.Errorf("update mood: %w", err)
		}
		existing.MoodEmoji, existing.MoodRate = emoji, rate
		return existing, false, nil
	}

	n := periods.Numbers(at)
	entry := &types.MoodEntry{
		UserID:    userID,
		Date:      at,
		Day:       n.Day,
		Week:      n.Week,
		Month:     n.Month,
		Year:      n.Year,
		MoodEmoji: emoji,
		MoodRate:  rate,
	}
	if err := ms.moods.Create(dbc, entry); err != nil {
		if !dberr.IsUniqueViolation(err) {
			return nil, false, fmt.Errorf("create mood: %w", err)
		}
		// Lost a race with a concurrent check-in for the same day.
		winner, getErr := ms.moods.GetForDay(dbc, userID, key)
		if getErr != nil || winner == nil {
			return nil, false, fmt.Errorf("reload mood after conflict: %w", err)
		}
		if err := ms.moods.Update(dbc, winner.ID, emoji, rate); err != nil {
			return nil, false, fmt.Errorf("update mood: %w", err)
		}
		winner.MoodEmoji, winner.MoodRate = emoji, rate
		return winner, false, nil
	}
	return entry, true, nil
}

func (ms *moodService) Today(ctx context.Context) (*types.MoodEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return ms.moods.GetForDay(dbctx.Context{Ctx: ctx}, userID, periods.DayKeyOf(ms.now()))
}

func (ms *moodService) Trends(ctx context.Context, days int) ([]TrendPoint, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	if days > 366 {
		days = 366
	}
	now := ms.now()
	start := periods.StartOfDay(now).AddDate(0, 0, -(days - 1))
	rows, err := ms.moods.ListRange(dbctx.Context{Ctx: ctx}, userID, start, now, true)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	byDay := make(map[string]*types.MoodEntry, len(rows))
	for _, m := range rows {
		byDay[m.Date.In(now.Location()).Format("2006-01-02")] = m
	}
	out := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		p := TrendPoint{Date: day}
		if m, ok := byDay[day]; ok {
			rate, emoji := m.Rate(), m.MoodEmoji
			p.MoodRate, p.MoodEmoji = &rate, &emoji
		}
		out = append(out, p)
	}
	return out, nil
}

func (ms *moodService) Recent(ctx context.Context) ([]*types.MoodEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return ms.moods.ListRecent(dbctx.Context{Ctx: ctx}, userID, 10)
}
