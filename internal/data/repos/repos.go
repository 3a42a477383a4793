package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos/notification"
	"github.com/yungbote/perspective-backend/internal/data/repos/perspective"
	"github.com/yungbote/perspective-backend/internal/data/repos/summary"
	"github.com/yungbote/perspective-backend/internal/data/repos/user"
	"github.com/yungbote/perspective-backend/internal/data/repos/wellness"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserProfile = user.Profile

type MoodRepo = wellness.MoodRepo
type JournalRepo = wellness.JournalRepo
type JournalFilter = wellness.JournalFilter

type SessionRepo = perspective.SessionRepo
type SessionWithCardCount = perspective.SessionWithCardCount

type SummaryRepo = summary.SummaryRepo

type NotificationRepo = notification.NotificationRepo
type NotificationListFilter = notification.ListFilter
type NotificationTypeReadCount = notification.TypeReadCount

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewMoodRepo(db *gorm.DB, baseLog *logger.Logger) MoodRepo {
	return wellness.NewMoodRepo(db, baseLog)
}
func NewJournalRepo(db *gorm.DB, baseLog *logger.Logger) JournalRepo {
	return wellness.NewJournalRepo(db, baseLog)
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return perspective.NewSessionRepo(db, baseLog)
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return summary.NewSummaryRepo(db, baseLog)
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return notification.NewNotificationRepo(db, baseLog)
}
