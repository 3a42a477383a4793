package perspective

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusInput         = "input"
	StatusUnderstanding = "understanding"
	StatusCompleted     = "completed"
)

var statusRank = map[string]int{
	StatusInput:         0,
	StatusUnderstanding: 1,
	StatusCompleted:     2,
}

// CanAdvance reports whether a session may move from -> to. Status never moves back.
func CanAdvance(from, to string) bool {
	f, okFrom := statusRank[from]
	t, okTo := statusRank[to]
	return okFrom && okTo && t >= f
}

const (
	QuestionText           = "text"
	QuestionMultipleChoice = "multiple_choice"
	QuestionScale          = "scale"
	QuestionEmoji          = "emoji"
)

const (
	CardGrowth     = "growth"
	CardCompassion = "compassion"
	CardAction     = "action"
	CardInsight    = "insight"
)

func ValidCardType(t string) bool {
	switch t {
	case CardGrowth, CardCompassion, CardAction, CardInsight:
		return true
	}
	return false
}

type Session struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	UserInput      string     `gorm:"column:user_input;type:text;not null" json:"user_input"`
	Status         string     `gorm:"not null;default:input;index" json:"status"`
	SavedToJournal bool       `gorm:"column:saved_to_journal;not null;default:false" json:"saved_to_journal"`
	JournalID      *uuid.UUID `gorm:"type:uuid;column:journal_id" json:"journal_id,omitempty"`
	Date           time.Time  `gorm:"not null;index" json:"date"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	Quizzes []Quiz `gorm:"foreignKey:SessionID" json:"quizzes,omitempty"`
	Cards   []Card `gorm:"foreignKey:SessionID" json:"cards,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Session) TableName() string { return "perspective_session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID    uuid.UUID                   `gorm:"type:uuid;not null;index" json:"session_id"`
	Position     int                         `gorm:"not null" json:"position"`
	QuestionText string                      `gorm:"column:question_text;type:text;not null" json:"question_text"`
	QuestionType string                      `gorm:"column:question_type;not null" json:"question_type"`
	Options      datatypes.JSONSlice[string] `json:"options,omitempty"`
	ScaleMin     int                         `gorm:"column:scale_min" json:"scale_min,omitempty"`
	ScaleMax     int                         `gorm:"column:scale_max" json:"scale_max,omitempty"`
	Placeholder  string                      `json:"placeholder,omitempty"`
	AnswerText   *string                     `gorm:"column:answer_text;type:text" json:"answer_text,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Quiz) TableName() string { return "perspective_quiz" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Card struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Position  int       `gorm:"not null" json:"position"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CardType  string    `gorm:"column:card_type;not null" json:"card_type"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Card) TableName() string { return "perspective_card" }

func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Conversation is one chat exchange about a session: the person's message and the reply.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Response  string    `gorm:"type:text;not null" json:"response"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Conversation) TableName() string { return "perspective_conversation" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
