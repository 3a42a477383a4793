package wellness

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultMoodRate = 5

// MoodEntry is the single mood check for a user's calendar day.
type MoodEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_mood_user_day,priority:1" json:"user_id"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	Day       int       `gorm:"not null;uniqueIndex:idx_mood_user_day,priority:2" json:"day"`
	Week      int       `gorm:"not null" json:"week"`
	Month     int       `gorm:"not null" json:"month"`
	Year      int       `gorm:"not null;uniqueIndex:idx_mood_user_day,priority:3" json:"year"`
	MoodEmoji string    `gorm:"column:mood_emoji;not null" json:"mood_emoji"`
	MoodRate  int       `gorm:"column:mood_rate;not null;default:5" json:"mood_rate"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (MoodEntry) TableName() string { return "mood_entry" }

func (m *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Rate returns the stored rate, falling back to the default for unset rows.
func (m *MoodEntry) Rate() int {
	if m == nil || m.MoodRate <= 0 {
		return DefaultMoodRate
	}
	return m.MoodRate
}
