package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Mood         repos.MoodRepo
	Journal      repos.JournalRepo
	Session      repos.SessionRepo
	Summary      repos.SummaryRepo
	Notification repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Mood:         repos.NewMoodRepo(db, log),
		Journal:      repos.NewJournalRepo(db, log),
		Session:      repos.NewSessionRepo(db, log),
		Summary:      repos.NewSummaryRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
	}
}
