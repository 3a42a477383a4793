package user

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the local account mirrored from the identity provider. The counters are
// maintained by the journal, perspective and streak flows.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string    `gorm:"column:external_id;uniqueIndex;not null" json:"-"`
	Email      string    `gorm:"column:email;index" json:"email"`
	FirstName  string    `gorm:"column:first_name" json:"first_name"`
	LastName   string    `gorm:"column:last_name" json:"last_name"`
	Username   *string   `gorm:"column:username;uniqueIndex" json:"username"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false" json:"is_verified"`

	TotalPoints   int `gorm:"column:total_points;not null;default:0" json:"total_points"`
	CurrentStreak int `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak int `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	Sessions      int `gorm:"column:sessions;not null;default:0" json:"sessions"`

	PushNotification  bool           `gorm:"column:push_notification;not null;default:true" json:"push_notification"`
	DarkMode          bool           `gorm:"column:dark_mode;not null;default:false" json:"dark_mode"`
	WellnessReminders bool           `gorm:"column:wellness_reminders;not null;default:true" json:"wellness_reminders"`
	WeeklySummary     bool           `gorm:"column:weekly_summary;not null;default:true" json:"weekly_summary"`
	EmailPreferences  datatypes.JSON `gorm:"column:email_preferences" json:"-"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Preferences are the app settings a user toggles from the profile screen.
type Preferences struct {
	PushNotification  bool `json:"push_notification"`
	DarkMode          bool `json:"dark_mode"`
	WellnessReminders bool `json:"wellness_reminders"`
	WeeklySummary     bool `json:"weekly_summary"`
}

func (u *User) Preferences() Preferences {
	return Preferences{
		PushNotification:  u.PushNotification,
		DarkMode:          u.DarkMode,
		WellnessReminders: u.WellnessReminders,
		WeeklySummary:     u.WeeklySummary,
	}
}

type EmailPreferences struct {
	WeeklySummary  bool `json:"weekly_summary"`
	MonthlySummary bool `json:"monthly_summary"`
	Milestones     bool `json:"milestones"`
	DailyReminders bool `json:"daily_reminders"`
	Enabled        bool `json:"enabled"`
}

func DefaultEmailPreferences() EmailPreferences {
	return EmailPreferences{
		WeeklySummary:  true,
		MonthlySummary: true,
		Milestones:     true,
		DailyReminders: false,
		Enabled:        true,
	}
}

// EmailPrefs returns the stored email preferences laid over the defaults. Keys the
// row never set keep their default; an unreadable column yields the defaults.
func (u *User) EmailPrefs() EmailPreferences {
	prefs := DefaultEmailPreferences()
	if len(u.EmailPreferences) == 0 {
		return prefs
	}
	merged := prefs
	if err := json.Unmarshal(u.EmailPreferences, &merged); err != nil {
		return prefs
	}
	return merged
}
