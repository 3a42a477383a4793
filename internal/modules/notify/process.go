package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// WeeklyBatch is satisfied by *rollup.BatchRunner.
type WeeklyBatch interface {
	RunIfPending(ctx context.Context, kind periods.Kind, now time.Time) (rollup.BatchResult, error)
}

// ActiveUsers is satisfied by rollup.ActivitySource.
type ActiveUsers interface {
	ListActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

type ProcessError struct {
	UserID string `json:"userId,omitempty"`
	Action string `json:"action"`
	Error  string `json:"error"`
}

type ProcessDetails struct {
	ScheduledProcessed         int `json:"scheduledProcessed"`
	WeeklySummariesGenerated   int `json:"weeklySummariesGenerated"`
	WeeklySummaryNotifications int `json:"weeklySummaryNotifications"`
	RemindersSetup             int `json:"remindersSetup"`
}

type ProcessResult struct {
	Processed    int            `json:"processed"`
	Created      int            `json:"created"`
	Errors       int            `json:"errors"`
	ErrorDetails []ProcessError `json:"errorDetails"`
	Details      ProcessDetails `json:"details"`
}

type Processor struct {
	fanout *Fanout
	weekly WeeklyBatch
	active ActiveUsers
	log    *logger.Logger
}

func NewProcessor(fanout *Fanout, weekly WeeklyBatch, active ActiveUsers, baseLog *logger.Logger) *Processor {
	return &Processor{
		fanout: fanout,
		weekly: weekly,
		active: active,
		log:    baseLog.With("component", "NotificationProcessor"),
	}
}

// ProcessBatch sweeps due notifications, runs the weekly rollup on Sundays unless it
// already finished for that week, and tops up reminders for active users. Only a failed sweep or user listing is returned as
// an error.
func (p *Processor) ProcessBatch(ctx context.Context, now time.Time) (ProcessResult, error) {
	res := ProcessResult{ErrorDetails: []ProcessError{}}

	swept, err := p.fanout.SweepDue(ctx, now)
	if err != nil {
		return res, err
	}
	res.Details.ScheduledProcessed = swept
	res.Processed += swept

	if now.Weekday() == time.Sunday && p.weekly != nil {
		weekly, err := p.weekly.RunIfPending(ctx, periods.Week, now)
		if err != nil {
			res.Errors++
			res.ErrorDetails = append(res.ErrorDetails, ProcessError{Action: "weekly_summaries", Error: err.Error()})
		} else {
			// The rollup announces each summary it creates.
			res.Details.WeeklySummariesGenerated = weekly.Created
			res.Details.WeeklySummaryNotifications = weekly.Created
			res.Created += weekly.Created
			for _, d := range weekly.ErrorDetails {
				res.Errors++
				res.ErrorDetails = append(res.ErrorDetails, ProcessError{UserID: d.UserID, Action: "weekly_summary", Error: d.Error})
			}
		}
	}

	users, err := p.active.ListActiveUsers(ctx, now.Add(-rollup.ActiveWindowShort))
	if err != nil {
		return res, fmt.Errorf("list active users: %w", err)
	}
	for _, userID := range users {
		n, err := p.fanout.SetupReminders(ctx, userID, now)
		res.Details.RemindersSetup += n
		res.Created += n
		if err != nil {
			p.log.Warn("Reminder setup failed", "user_id", userID, "error", err)
			res.Errors++
			res.ErrorDetails = append(res.ErrorDetails, ProcessError{UserID: userID.String(), Action: "setup_reminders", Error: err.Error()})
		}
	}

	p.log.Info("Notification batch finished",
		"swept", swept,
		"weekly_created", res.Details.WeeklySummariesGenerated,
		"reminders", res.Details.RemindersSetup,
		"errors", res.Errors,
	)
	return res, nil
}
