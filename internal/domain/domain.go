package domain

import (
	"github.com/yungbote/perspective-backend/internal/domain/notification"
	"github.com/yungbote/perspective-backend/internal/domain/perspective"
	"github.com/yungbote/perspective-backend/internal/domain/summary"
	"github.com/yungbote/perspective-backend/internal/domain/user"
	"github.com/yungbote/perspective-backend/internal/domain/wellness"
)

type (
	User             = user.User
	UserPreferences  = user.Preferences
	EmailPreferences = user.EmailPreferences

	MoodEntry    = wellness.MoodEntry
	JournalEntry = wellness.JournalEntry

	PerspectiveSession = perspective.Session
	PerspectiveQuiz    = perspective.Quiz
	PerspectiveCard    = perspective.Card
	Conversation       = perspective.Conversation

	Scores         = summary.Scores
	Narrative      = summary.Narrative
	DailySummary   = summary.DailySummary
	WeeklySummary  = summary.WeeklySummary
	MonthlySummary = summary.MonthlySummary

	Notification = notification.Notification
)

const (
	SessionStatusInput         = perspective.StatusInput
	SessionStatusUnderstanding = perspective.StatusUnderstanding
	SessionStatusCompleted     = perspective.StatusCompleted

	NotificationTypeTip             = notification.TypeTip
	NotificationTypeMilestone       = notification.TypeMilestone
	NotificationTypeCheckIn         = notification.TypeCheckIn
	NotificationTypeDailyReflection = notification.TypeDailyReflection
	NotificationTypeTaskReminder    = notification.TypeTaskReminder
	NotificationTypeAchievement     = notification.TypeAchievement
	NotificationTypeReminder        = notification.TypeReminder
)

func DefaultEmailPreferences() EmailPreferences { return user.DefaultEmailPreferences() }

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&MoodEntry{},
		&JournalEntry{},
		&PerspectiveSession{},
		&PerspectiveQuiz{},
		&PerspectiveCard{},
		&Conversation{},
		&DailySummary{},
		&WeeklySummary{},
		&MonthlySummary{},
		&Notification{},
	}
}
