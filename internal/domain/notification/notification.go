package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeTip             = "tip"
	TypeMilestone       = "milestone"
	TypeCheckIn         = "check_in"
	TypeDailyReflection = "daily_reflection"
	TypeTaskReminder    = "task_reminder"
	TypeAchievement     = "achievement"
	TypeReminder        = "reminder"
)

func ValidType(t string) bool {
	switch t {
	case TypeTip, TypeMilestone, TypeCheckIn, TypeDailyReflection, TypeTaskReminder, TypeAchievement, TypeReminder:
		return true
	}
	return false
}

// Notification is pending while ScheduledFor is set and SentAt is nil; the sweeper
// stamps SentAt once ScheduledFor is due.
type Notification struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string     `gorm:"not null" json:"title"`
	Message      string     `gorm:"type:text;not null" json:"message"`
	Type         string     `gorm:"not null;index" json:"type"`
	ScheduledFor *time.Time `gorm:"column:scheduled_for;index" json:"scheduled_for,omitempty"`
	SentAt       *time.Time `gorm:"column:sent_at;index" json:"sent_at,omitempty"`
	IsRead       bool       `gorm:"column:is_read;not null;default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
