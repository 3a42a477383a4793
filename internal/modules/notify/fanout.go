// Package notify creates and delivers user notifications: immediate and scheduled
// messages, recurring reminders, tips and milestone awards.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/domain/notification"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const (
	DailyReflectionTitle   = "Daily Reflection Time"
	DailyReflectionMessage = "Take a moment to reflect on your day and practice gratitude. How are you feeling?"
	WeeklyCheckInTitle     = "Weekly Check-in"
	WeeklyCheckInMessage   = "How are you feeling this week? Time for your weekly mood check and reflection."
	TaskReminderMessage    = "Don't forget to complete this important task for your wellness journey."
)

type Tip struct {
	Title   string
	Message string
}

var Tips = []Tip{
	{"Breathing Exercise", "Try the 4-7-8 breathing technique: Inhale for 4 counts, hold for 7, exhale for 8. Repeat 4 times."},
	{"Gratitude Practice", "Write down 3 things you're grateful for today. This simple practice can shift your perspective positively."},
	{"Body Scan Meditation", "Take 5 minutes to scan your body from head to toe, noticing any tension and consciously relaxing each area."},
	{"Mindful Walking", "Go for a 10-minute walk and focus on each step, the ground beneath your feet, and your surroundings."},
	{"Digital Detox", "Take a 30-minute break from all screens. Use this time for reflection, reading, or simply being present."},
}

type Fanout struct {
	notes   repos.NotificationRepo
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewFanout(notes repos.NotificationRepo, baseLog *logger.Logger, metrics *observability.Metrics) *Fanout {
	return &Fanout{
		notes:   notes,
		log:     baseLog.With("component", "NotificationFanout"),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores a notification. Without scheduledFor it is sent immediately;
// otherwise it stays pending until the sweeper reaches scheduledFor.
func (f *Fanout) Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string, scheduledFor *time.Time) (*types.Notification, error) {
	return f.NotifyTx(dbctx.Context{Ctx: ctx}, userID, title, message, notifType, scheduledFor)
}

// NotifyTx is Notify inside the caller's transaction.
func (f *Fanout) NotifyTx(dbc dbctx.Context, userID uuid.UUID, title, message, notifType string, scheduledFor *time.Time) (*types.Notification, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation("user id required")
	}
	if title == "" || message == "" {
		return nil, apierr.Validation("title and message are required")
	}
	if !notification.ValidType(notifType) {
		return nil, apierr.Validation("invalid notification type %q", notifType)
	}
	n := &types.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
	}
	if scheduledFor != nil {
		at := scheduledFor.UTC()
		n.ScheduledFor = &at
	} else {
		sent := f.now()
		n.SentAt = &sent
	}
	if err := f.notes.Create(dbc, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	f.metrics.IncNotificationCreated(notifType)
	return n, nil
}

// SweepDue marks every pending notification whose time has come as sent. A second
// sweep at the same instant returns 0.
func (f *Fanout) SweepDue(ctx context.Context, now time.Time) (int, error) {
	n, err := f.notes.MarkDueSent(dbctx.Context{Ctx: ctx}, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep due notifications: %w", err)
	}
	if n > 0 {
		f.log.Info("Delivered scheduled notifications", "count", n)
	}
	f.metrics.AddNotificationsSwept(int(n))
	return int(n), nil
}

// CreateDailyReminder schedules tomorrow's 20:00 reflection reminder.
func (f *Fanout) CreateDailyReminder(ctx context.Context, userID uuid.UUID, now time.Time) (*types.Notification, error) {
	at := atClock(now.AddDate(0, 0, 1), 20)
	return f.Notify(ctx, userID, DailyReflectionTitle, DailyReflectionMessage, types.NotificationTypeDailyReflection, &at)
}

// CreateWeeklyReminder schedules a check-in a week out at 19:00.
func (f *Fanout) CreateWeeklyReminder(ctx context.Context, userID uuid.UUID, now time.Time) (*types.Notification, error) {
	at := atClock(now.AddDate(0, 0, 7), 19)
	return f.Notify(ctx, userID, WeeklyCheckInTitle, WeeklyCheckInMessage, types.NotificationTypeCheckIn, &at)
}

// SetupReminders ensures the user has one pending daily and one pending weekly
// reminder and returns how many it created.
func (f *Fanout) SetupReminders(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	created := 0
	for _, r := range []struct {
		notifType string
		create    func(context.Context, uuid.UUID, time.Time) (*types.Notification, error)
	}{
		{types.NotificationTypeDailyReflection, f.CreateDailyReminder},
		{types.NotificationTypeCheckIn, f.CreateWeeklyReminder},
	} {
		pending, err := f.notes.HasPendingOfType(dbc, userID, r.notifType)
		if err != nil {
			return created, fmt.Errorf("check pending %s: %w", r.notifType, err)
		}
		if pending {
			continue
		}
		if _, err := r.create(ctx, userID, now); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// CreateMindfulnessTip sends Tips[pick mod len(Tips)].
func (f *Fanout) CreateMindfulnessTip(ctx context.Context, userID uuid.UUID, pick int) (*types.Notification, error) {
	if pick < 0 {
		pick = -pick
	}
	tip := Tips[pick%len(Tips)]
	return f.Notify(ctx, userID, tip.Title, tip.Message, types.NotificationTypeTip, nil)
}

func (f *Fanout) CreateTaskReminder(ctx context.Context, userID uuid.UUID, task string, scheduledFor *time.Time) (*types.Notification, error) {
	if task == "" {
		return nil, apierr.Validation("task required")
	}
	return f.Notify(ctx, userID, "Reminder: "+task, TaskReminderMessage, types.NotificationTypeTaskReminder, scheduledFor)
}

func atClock(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}
