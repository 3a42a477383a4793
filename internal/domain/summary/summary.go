package summary

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scores are the six 1..10 wellness scores every rollup carries.
type Scores struct {
	HappinessScore  int `gorm:"column:happiness_score;not null;default:5" json:"happiness_score"`
	SadnessScore    int `gorm:"column:sadness_score;not null;default:5" json:"sadness_score"`
	AnxietyScore    int `gorm:"column:anxiety_score;not null;default:5" json:"anxiety_score"`
	EnergyScore     int `gorm:"column:energy_score;not null;default:5" json:"energy_score"`
	LonelinessScore int `gorm:"column:loneliness_score;not null;default:5" json:"loneliness_score"`
	OverallWellness int `gorm:"column:overall_wellness;not null;default:5" json:"overall_wellness"`
}

// Narrative is the generated text shared by weekly and monthly rollups.
type Narrative struct {
	DominantTheme         string                      `gorm:"column:dominant_theme" json:"dominant_theme"`
	AISummary             string                      `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	ShortSummary          string                      `gorm:"column:short_summary;type:text" json:"short_summary"`
	DetailedSummary       string                      `gorm:"column:detailed_summary;type:text" json:"detailed_summary"`
	GrowthInsights        datatypes.JSONSlice[string] `gorm:"column:growth_insights" json:"growth_insights"`
	AchievementHighlights datatypes.JSONSlice[string] `gorm:"column:achievement_highlights" json:"achievement_highlights"`
	ChallengesFaced       datatypes.JSONSlice[string] `gorm:"column:challenges_faced" json:"challenges_faced"`
	Recommendations       datatypes.JSONSlice[string] `gorm:"column:recommendations" json:"recommendations"`
}

// DailySummary is unique per (user, day-of-year, year).
type DailySummary struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_daily_summary_period,priority:1" json:"user_id"`
	Date   time.Time `gorm:"not null;index" json:"date"`
	Day    int       `gorm:"not null;uniqueIndex:idx_daily_summary_period,priority:2" json:"day"`
	Week   int       `gorm:"not null" json:"week"`
	Month  int       `gorm:"not null" json:"month"`
	Year   int       `gorm:"not null;uniqueIndex:idx_daily_summary_period,priority:3" json:"year"`

	MoodEmoji *string `gorm:"column:mood_emoji" json:"mood_emoji"`
	MoodRate  *int    `gorm:"column:mood_rate" json:"mood_rate"`

	Scores

	AISummary        string                      `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	KeyInsights      datatypes.JSONSlice[string] `gorm:"column:key_insights" json:"key_insights"`
	JournalCount     int                         `gorm:"column:journal_count;not null;default:0" json:"journal_count"`
	PerspectiveCount int                         `gorm:"column:perspective_count;not null;default:0" json:"perspective_count"`

	MoodIDs    datatypes.JSONSlice[string] `gorm:"column:mood_ids" json:"mood_ids"`
	JournalIDs datatypes.JSONSlice[string] `gorm:"column:journal_ids" json:"journal_ids"`
	SessionIDs datatypes.JSONSlice[string] `gorm:"column:session_ids" json:"session_ids"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (DailySummary) TableName() string { return "daily_summary" }

func (s *DailySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// WeeklySummary is unique per (user, week, month, year) of the week's Sunday.
type WeeklySummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_weekly_summary_period,priority:1" json:"user_id"`
	WeekStart time.Time `gorm:"column:week_start;not null;index" json:"week_start"`
	WeekEnd   time.Time `gorm:"column:week_end;not null" json:"week_end"`
	Week      int       `gorm:"not null;uniqueIndex:idx_weekly_summary_period,priority:2" json:"week"`
	Month     int       `gorm:"not null;uniqueIndex:idx_weekly_summary_period,priority:3" json:"month"`
	Year      int       `gorm:"not null;uniqueIndex:idx_weekly_summary_period,priority:4" json:"year"`

	AvgMoodRate      *float64 `gorm:"column:avg_mood_rate" json:"avg_mood_rate"`
	AvgMoodEmoji     *string  `gorm:"column:avg_mood_emoji" json:"avg_mood_emoji"`
	AvgWellnessScore *float64 `gorm:"column:avg_wellness_score" json:"avg_wellness_score"`

	Scores
	Narrative

	TotalJournals       int `gorm:"column:total_journals;not null;default:0" json:"total_journals"`
	TotalSessions       int `gorm:"column:total_sessions;not null;default:0" json:"total_sessions"`
	TotalMoods          int `gorm:"column:total_moods;not null;default:0" json:"total_moods"`
	TotalDailySummaries int `gorm:"column:total_daily_summaries;not null;default:0" json:"total_daily_summaries"`

	DailySummaryIDs datatypes.JSONSlice[string] `gorm:"column:daily_summary_ids" json:"daily_summary_ids"`
	JournalIDs      datatypes.JSONSlice[string] `gorm:"column:journal_ids" json:"journal_ids"`
	SessionIDs      datatypes.JSONSlice[string] `gorm:"column:session_ids" json:"session_ids"`
	MoodIDs         datatypes.JSONSlice[string] `gorm:"column:mood_ids" json:"mood_ids"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (WeeklySummary) TableName() string { return "weekly_summary" }

func (s *WeeklySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// MonthlySummary is unique per (user, month, year).
type MonthlySummary struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_monthly_summary_period,priority:1" json:"user_id"`
	MonthStart time.Time `gorm:"column:month_start;not null;index" json:"month_start"`
	MonthEnd   time.Time `gorm:"column:month_end;not null" json:"month_end"`
	Month      int       `gorm:"not null;uniqueIndex:idx_monthly_summary_period,priority:2" json:"month"`
	Year       int       `gorm:"not null;uniqueIndex:idx_monthly_summary_period,priority:3" json:"year"`

	AvgMoodRate      *float64 `gorm:"column:avg_mood_rate" json:"avg_mood_rate"`
	AvgMoodEmoji     *string  `gorm:"column:avg_mood_emoji" json:"avg_mood_emoji"`
	AvgWellnessScore *float64 `gorm:"column:avg_wellness_score" json:"avg_wellness_score"`

	Scores
	Narrative

	TotalJournals        int `gorm:"column:total_journals;not null;default:0" json:"total_journals"`
	TotalSessions        int `gorm:"column:total_sessions;not null;default:0" json:"total_sessions"`
	TotalMoods           int `gorm:"column:total_moods;not null;default:0" json:"total_moods"`
	TotalDailySummaries  int `gorm:"column:total_daily_summaries;not null;default:0" json:"total_daily_summaries"`
	TotalWeeklySummaries int `gorm:"column:total_weekly_summaries;not null;default:0" json:"total_weekly_summaries"`

	DailySummaryIDs  datatypes.JSONSlice[string] `gorm:"column:daily_summary_ids" json:"daily_summary_ids"`
	WeeklySummaryIDs datatypes.JSONSlice[string] `gorm:"column:weekly_summary_ids" json:"weekly_summary_ids"`
	JournalIDs       datatypes.JSONSlice[string] `gorm:"column:journal_ids" json:"journal_ids"`
	SessionIDs       datatypes.JSONSlice[string] `gorm:"column:session_ids" json:"session_ids"`
	MoodIDs          datatypes.JSONSlice[string] `gorm:"column:mood_ids" json:"mood_ids"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (MonthlySummary) TableName() string { return "monthly_summary" }

func (s *MonthlySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
