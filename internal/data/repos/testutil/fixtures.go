package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		FirstName:  "A",
		LastName:   "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedMood(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time, emoji string, rate int) *types.MoodEntry {
	tb.Helper()
	day := periods.StartOfDay(at)
	n := periods.Numbers(day)
	m := &types.MoodEntry{
		UserID:    userID,
		Date:      day,
		Day:       n.Day,
		Week:      n.Week,
		Month:     n.Month,
		Year:      n.Year,
		MoodEmoji: emoji,
		MoodRate:  rate,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mood: %v", err)
	}
	return m
}

func SeedJournal(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time, title string) *types.JournalEntry {
	tb.Helper()
	j := &types.JournalEntry{
		UserID:       userID,
		Title:        title,
		Content:      "content for " + title,
		MoodEmoji:    "🙂",
		Summary:      "summary",
		Tags:         datatypes.JSONSlice[string]{"personal"},
		PointsEarned: 5,
		Date:         at,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed journal: %v", err)
	}
	return j
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time, status string) *types.PerspectiveSession {
	tb.Helper()
	s := &types.PerspectiveSession{
		UserID:    userID,
		UserInput: "I keep second-guessing myself at work",
		Status:    status,
		Date:      at,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedDailySummary(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time, wellness int) *types.DailySummary {
	tb.Helper()
	day = periods.StartOfDay(day)
	n := periods.Numbers(day)
	s := &types.DailySummary{
		UserID: userID,
		Date:   day,
		Day:    n.Day,
		Week:   n.Week,
		Month:  n.Month,
		Year:   n.Year,
		Scores: types.Scores{
			HappinessScore:  5,
			SadnessScore:    5,
			AnxietyScore:    5,
			EnergyScore:     5,
			LonelinessScore: 5,
			OverallWellness: wellness,
		},
		AISummary: "seeded",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed daily summary: %v", err)
	}
	return s
}

func SeedNotification(tb testing.TB, ctx context.Context, tx *gorm.DB, n *types.Notification) *types.Notification {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed notification: %v", err)
	}
	return n
}

func PtrTime(v time.Time) *time.Time { return &v }
