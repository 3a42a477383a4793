package wellness

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxJournalTitle   = 200
	MaxJournalContent = 5000
)

type JournalEntry struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID    *uuid.UUID                  `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Title        string                      `gorm:"not null" json:"title"`
	Content      string                      `gorm:"type:text;not null" json:"content"`
	MoodEmoji    string                      `gorm:"column:mood_emoji" json:"mood_emoji"`
	Summary      string                      `gorm:"type:text" json:"summary"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	PointsEarned int                         `gorm:"column:points_earned;not null;default:0" json:"points_earned"`
	Date         time.Time                   `gorm:"not null;index" json:"date"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (JournalEntry) TableName() string { return "journal_entry" }

func (j *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
