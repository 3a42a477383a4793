package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const MilestoneCooldown = 7 * 24 * time.Hour

// Counters are the cumulative figures milestones are judged on.
type Counters struct {
	TotalSessions int64
	WeekSessions  int64
	TotalJournals int64
	TotalMoods    int64
	CurrentStreak int
}

type Milestone struct {
	Title   string
	Message string
	Reached func(Counters) bool
}

// Milestones fire on exact counts, except the streak which fires at 30 or more.
var Milestones = []Milestone{
	{
		Title:   "Welcome to Your Journey!",
		Message: "Congratulations on completing your first perspective session! You're taking an important step towards self-discovery.",
		Reached: func(c Counters) bool { return c.TotalSessions == 1 },
	},
	{
		Title:   "Weekly Achievement Unlocked!",
		Message: "Amazing! You've completed 5 perspective sessions this week. Your dedication to self-reflection is inspiring!",
		Reached: func(c Counters) bool { return c.WeekSessions == 5 },
	},
	{
		Title:   "Double Digits!",
		Message: "You've completed 10 perspective sessions! Your consistency is building a strong foundation for personal growth.",
		Reached: func(c Counters) bool { return c.TotalSessions == 10 },
	},
	{
		Title:   "30-Day Streak!",
		Message: "Incredible! You've maintained a 30-day streak. Your commitment to daily reflection is truly remarkable!",
		Reached: func(c Counters) bool { return c.CurrentStreak >= 30 },
	},
	{
		Title:   "First Journal Entry!",
		Message: "Great start! You've created your first journal entry. Keep writing to track your emotional journey.",
		Reached: func(c Counters) bool { return c.TotalJournals == 1 },
	},
	{
		Title:   "Week of Mood Tracking!",
		Message: "You've tracked your mood for a full week! This data will help you understand your emotional patterns.",
		Reached: func(c Counters) bool { return c.TotalMoods == 7 },
	},
}

type MilestoneEvaluator struct {
	users    repos.UserRepo
	moods    repos.MoodRepo
	journals repos.JournalRepo
	sessions repos.SessionRepo
	notes    repos.NotificationRepo
	fanout   *Fanout
	log      *logger.Logger
}

func NewMilestoneEvaluator(
	users repos.UserRepo,
	moods repos.MoodRepo,
	journals repos.JournalRepo,
	sessions repos.SessionRepo,
	notes repos.NotificationRepo,
	fanout *Fanout,
	baseLog *logger.Logger,
) *MilestoneEvaluator {
	return &MilestoneEvaluator{
		users:    users,
		moods:    moods,
		journals: journals,
		sessions: sessions,
		notes:    notes,
		fanout:   fanout,
		log:      baseLog.With("component", "MilestoneEvaluator"),
	}
}

func (m *MilestoneEvaluator) counters(dbc dbctx.Context, userID uuid.UUID, now time.Time) (Counters, error) {
	var c Counters
	u, err := m.users.GetByID(dbc, userID)
	if err != nil {
		return c, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return c, fmt.Errorf("user %s not found", userID)
	}
	c.CurrentStreak = u.CurrentStreak
	if c.TotalSessions, err = m.sessions.CountByUser(dbc, userID); err != nil {
		return c, err
	}
	if c.WeekSessions, err = m.sessions.CountCreatedSince(dbc, userID, now.Add(-7*24*time.Hour)); err != nil {
		return c, err
	}
	if c.TotalJournals, err = m.journals.CountByUser(dbc, userID); err != nil {
		return c, err
	}
	if c.TotalMoods, err = m.moods.CountByUser(dbc, userID); err != nil {
		return c, err
	}
	return c, nil
}

// Check awards every reached milestone not already awarded within the cooldown and
// returns how many it created.
func (m *MilestoneEvaluator) Check(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	c, err := m.counters(dbc, userID, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, ms := range Milestones {
		if !ms.Reached(c) {
			continue
		}
		seen, err := m.notes.ExistsWithTitleSince(dbc, userID, types.NotificationTypeMilestone, ms.Title, now.Add(-MilestoneCooldown))
		if err != nil {
			return created, fmt.Errorf("milestone cooldown: %w", err)
		}
		if seen {
			continue
		}
		if _, err := m.fanout.Notify(ctx, userID, ms.Title, ms.Message, types.NotificationTypeMilestone, nil); err != nil {
			return created, err
		}
		m.fanout.metrics.IncMilestone(ms.Title)
		m.log.Info("Milestone awarded", "user_id", userID, "title", ms.Title)
		created++
	}
	return created, nil
}

// CheckQuietly runs Check and logs failures; request paths must not fail on it.
func (m *MilestoneEvaluator) CheckQuietly(ctx context.Context, userID uuid.UUID, now time.Time) {
	if m == nil {
		return
	}
	if _, err := m.Check(ctx, userID, now); err != nil {
		m.log.Warn("Milestone check failed", "user_id", userID, "error", err)
	}
}
