package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/retry"
)

const (
	BulkMarkAllRead   = "mark_all_read"
	BulkMarkAllUnread = "mark_all_unread"
	BulkDeleteAll     = "delete_all"

	GenerateSessionCompleted = "perspective_session_completed"
	GenerateJournalCreated   = "journal_entry_created"
	GenerateMoodTracked      = "mood_tracked"
	GenerateDailyReminder    = "create_daily_reminder"
	GenerateWeeklyReminder   = "create_weekly_reminder"
	GenerateMindfulnessTip   = "create_mindfulness_tip"
	GenerateTaskReminder     = "create_task_reminder"
	GenerateCustom           = "create_custom_notification"

	SetupReminders       = "setup_reminders"
	SetupCheckMilestones = "check_milestones"
	SetupCreateTip       = "create_tip"
)

// Reminders is satisfied by *notify.Fanout.
type Reminders interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string, scheduledFor *time.Time) (*types.Notification, error)
	CreateDailyReminder(ctx context.Context, userID uuid.UUID, now time.Time) (*types.Notification, error)
	CreateWeeklyReminder(ctx context.Context, userID uuid.UUID, now time.Time) (*types.Notification, error)
	SetupReminders(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	CreateMindfulnessTip(ctx context.Context, userID uuid.UUID, pick int) (*types.Notification, error)
	CreateTaskReminder(ctx context.Context, userID uuid.UUID, task string, scheduledFor *time.Time) (*types.Notification, error)
}

// MilestoneCounter is satisfied by *notify.MilestoneEvaluator.
type MilestoneCounter interface {
	Check(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
}

type NotificationPage struct {
	Notifications []*types.Notification `json:"notifications"`
	TotalCount    int64                 `json:"totalCount"`
	HasMore       bool                  `json:"hasMore"`
}

type NotificationStats struct {
	Total  int64                             `json:"total"`
	Unread int64                             `json:"unread"`
	ByType []repos.NotificationTypeReadCount `json:"byType"`
}

// GenerateRequest carries the optional fields of a generate action.
type GenerateRequest struct {
	Action       string
	Title        string
	Message      string
	Type         string
	Task         string
	ScheduledFor *time.Time
}

type GenerateResult struct {
	Action       string              `json:"action"`
	Created      int                 `json:"created"`
	Notification *types.Notification `json:"notification,omitempty"`
}

type NotificationService interface {
	List(ctx context.Context, limit, offset int, unreadOnly bool) (*NotificationPage, error)
	SetRead(ctx context.Context, id uuid.UUID, isRead bool) (*types.Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Bulk(ctx context.Context, action string, ids []uuid.UUID) (int64, error)
	Stats(ctx context.Context) (*NotificationStats, error)
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Setup(ctx context.Context, action string) (*GenerateResult, error)
}

type notificationService struct {
	log        *logger.Logger
	notes      repos.NotificationRepo
	reminders  Reminders
	milestones MilestoneCounter
	retry      retry.Policy
	now        Clock
	pick       func(n int) int
}

func NewNotificationService(
	log *logger.Logger,
	notes repos.NotificationRepo,
	reminders Reminders,
	milestones MilestoneCounter,
	clock Clock,
) NotificationService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	serviceLog := log.With("service", "NotificationService")
	return &notificationService{
		log:        serviceLog,
		notes:      notes,
		reminders:  reminders,
		milestones: milestones,
		retry:      retry.Store(serviceLog),
		now:        clock,
		pick:       rand.IntN,
	}
}

func (ns *notificationService) List(ctx context.Context, limit, offset int, unreadOnly bool) (*NotificationPage, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return retry.Value(ctx, ns.retry, "notifications.list", func(ctx context.Context) (*NotificationPage, error) {
		rows, total, err := ns.notes.ListForUser(dbctx.Context{Ctx: ctx}, userID, repos.NotificationListFilter{
			UnreadOnly: unreadOnly,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return nil, err
		}
		return &NotificationPage{
			Notifications: rows,
			TotalCount:    total,
			HasMore:       int64(offset+len(rows)) < total,
		}, nil
	})
}

func (ns *notificationService) SetRead(ctx context.Context, id uuid.UUID, isRead bool) (*types.Notification, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	n, err := retry.Value(ctx, ns.retry, "notifications.set_read", func(ctx context.Context) (*types.Notification, error) {
		return ns.notes.SetRead(dbctx.Context{Ctx: ctx}, userID, id, isRead)
	})
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apierr.NotFound("notification")
	}
	return n, nil
}

func (ns *notificationService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	ok, err := retry.Value(ctx, ns.retry, "notifications.delete", func(ctx context.Context) (bool, error) {
		return ns.notes.Delete(dbctx.Context{Ctx: ctx}, userID, id)
	})
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("notification")
	}
	return nil
}

func (ns *notificationService) Bulk(ctx context.Context, action string, ids []uuid.UUID) (int64, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}
	var fn func(ctx context.Context) (int64, error)
	switch action {
	case BulkMarkAllRead, BulkMarkAllUnread:
		isRead := action == BulkMarkAllRead
		fn = func(ctx context.Context) (int64, error) {
			return ns.notes.BulkSetRead(dbctx.Context{Ctx: ctx}, userID, ids, isRead)
		}
	case BulkDeleteAll:
		fn = func(ctx context.Context) (int64, error) {
			return ns.notes.BulkDelete(dbctx.Context{Ctx: ctx}, userID, ids)
		}
	default:
		return 0, apierr.Validation("unknown bulk action %q", action)
	}
	return retry.Value(ctx, ns.retry, "notifications.bulk", fn)
}

func (ns *notificationService) Stats(ctx context.Context) (*NotificationStats, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := retry.Value(ctx, ns.retry, "notifications.stats", func(ctx context.Context) ([]repos.NotificationTypeReadCount, error) {
		return ns.notes.StatsByTypeAndRead(dbctx.Context{Ctx: ctx}, userID)
	})
	if err != nil {
		return nil, err
	}
	out := &NotificationStats{ByType: groups}
	for _, g := range groups {
		out.Total += g.Count
		if !g.IsRead {
			out.Unread += g.Count
		}
	}
	return out, nil
}

func (ns *notificationService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ns.now()
	res := &GenerateResult{Action: req.Action}

	var single func(ctx context.Context) (*types.Notification, error)
	switch req.Action {
	case GenerateSessionCompleted, GenerateJournalCreated, GenerateMoodTracked:
		return ns.checkMilestones(ctx, userID, req.Action, now)
	case GenerateDailyReminder:
		single = func(ctx context.Context) (*types.Notification, error) {
			return ns.reminders.CreateDailyReminder(ctx, userID, now)
		}
	case GenerateWeeklyReminder:
		single = func(ctx context.Context) (*types.Notification, error) {
			return ns.reminders.CreateWeeklyReminder(ctx, userID, now)
		}
	case GenerateMindfulnessTip:
		return ns.createTip(ctx, userID, req.Action)
	case GenerateTaskReminder:
		single = func(ctx context.Context) (*types.Notification, error) {
			return ns.reminders.CreateTaskReminder(ctx, userID, strings.TrimSpace(req.Task), req.ScheduledFor)
		}
	case GenerateCustom:
		notifType := req.Type
		if notifType == "" {
			notifType = types.NotificationTypeReminder
		}
		single = func(ctx context.Context) (*types.Notification, error) {
			return ns.reminders.Notify(ctx, userID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Message), notifType, req.ScheduledFor)
		}
	default:
		return nil, apierr.Validation("unknown action %q", req.Action)
	}

	n, err := retry.Value(ctx, ns.retry, "notifications."+req.Action, single)
	if err != nil {
		return nil, err
	}
	res.Created, res.Notification = 1, n
	return res, nil
}

// Setup is the on-demand trigger for reminders, milestones and tips.
func (ns *notificationService) Setup(ctx context.Context, action string) (*GenerateResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ns.now()
	switch action {
	case SetupReminders:
		n, err := retry.Value(ctx, ns.retry, "notifications.setup_reminders", func(ctx context.Context) (int, error) {
			return ns.reminders.SetupReminders(ctx, userID, now)
		})
		if err != nil {
			return nil, err
		}
		return &GenerateResult{Action: action, Created: n}, nil
	case SetupCheckMilestones:
		return ns.checkMilestones(ctx, userID, action, now)
	case SetupCreateTip:
		return ns.createTip(ctx, userID, action)
	default:
		return nil, apierr.Validation("unknown action %q", action)
	}
}

func (ns *notificationService) checkMilestones(ctx context.Context, userID uuid.UUID, action string, now time.Time) (*GenerateResult, error) {
	if ns.milestones == nil {
		return nil, apierr.Internal(fmt.Errorf("milestones are not configured"))
	}
	n, err := retry.Value(ctx, ns.retry, "notifications.milestones", func(ctx context.Context) (int, error) {
		return ns.milestones.Check(ctx, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Action: action, Created: n}, nil
}

func (ns *notificationService) createTip(ctx context.Context, userID uuid.UUID, action string) (*GenerateResult, error) {
	pick := ns.pick(len(notify.Tips))
	n, err := retry.Value(ctx, ns.retry, "notifications.tip", func(ctx context.Context) (*types.Notification, error) {
		return ns.reminders.CreateMindfulnessTip(ctx, userID, pick)
	})
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Action: action, Created: 1, Notification: n}, nil
}
