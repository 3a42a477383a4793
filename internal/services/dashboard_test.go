package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/perspective-backend/internal/data/repos/testutil"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
)

func dayOffset(n int, hour int) time.Time {
	return time.Date(2026, time.October, 14+n, hour, 0, 0, 0, time.UTC)
}

func TestDashboardAggregatesWindow(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "dash")
	bg := context.Background()
	require.NoError(t, f.db.Model(&types.User{}).Where("id = ?", u.ID).
		Updates(map[string]any{"total_points": 100, "current_streak": 3, "longest_streak": 5}).Error)

	for i, rate := range []int{4, 4, 4, 8, 8, 8} {
		emoji := "😐"
		if rate == 8 {
			emoji = "😊"
		}
		testutil.SeedMood(t, bg, f.db, u.ID, dayOffset(i-5, 0), emoji, rate)
	}
	// Outside the week window.
	testutil.SeedMood(t, bg, f.db, u.ID, dayOffset(-20, 0), "😢", 1)
	testutil.SeedJournal(t, bg, f.db, u.ID, dayOffset(-1, 12), "yesterday")
	latest := testutil.SeedJournal(t, bg, f.db, u.ID, dayOffset(0, 9), "today")
	testutil.SeedSession(t, bg, f.db, u.ID, dayOffset(0, 10), types.SessionStatusCompleted)
	testutil.SeedDailySummary(t, bg, f.db, u.ID, dayOffset(-1, 0), 7)

	dash, err := f.dashboard.Dashboard(ctx, "")
	require.NoError(t, err)
	require.Equal(t, TimeRangeWeek, dash.TimeRange)

	require.Equal(t, 6.0, dash.Wellness.AverageMood)
	require.Equal(t, 7.0, dash.Wellness.OverallWellness)
	require.Equal(t, 100, dash.Wellness.TotalPoints)
	require.Equal(t, WellnessScore(100, 6, 3), dash.Wellness.WellnessScore)
	require.Equal(t, TrendImproving, dash.Wellness.Trend)

	require.Len(t, dash.MoodAnalytics.MoodTrend, 6)
	require.Equal(t, "2026-10-09", dash.MoodAnalytics.MoodTrend[0].Date)
	require.Equal(t, map[string]int{"Okay": 3, "Excellent": 3}, dash.MoodAnalytics.MoodDistribution)
	require.Len(t, dash.MoodAnalytics.Insights, 1)
	require.Equal(t, "seeded", dash.MoodAnalytics.Insights[0].Text)

	require.Equal(t, 9, dash.Activity.TotalActivities)
	require.Equal(t, map[string]int{"mood": 6, "journal": 2, "perspective": 1}, dash.Activity.ActivityByType)
	require.Equal(t, 65, dash.Activity.EngagementScore)
	require.NotNil(t, dash.Activity.MostActiveDay)
	require.Equal(t, "2026-10-14", *dash.Activity.MostActiveDay)

	require.Equal(t, 2, dash.JournalInsights.TotalEntries)
	require.Equal(t, map[string]int{"🙂": 2}, dash.JournalInsights.MoodPatterns)
	require.Equal(t, []TagCount{{Tag: "personal", Count: 2}}, dash.JournalInsights.TopTags)
	require.Equal(t, latest.ID, dash.JournalInsights.RecentEntries[0].ID)

	require.Equal(t, StreakInfo{CurrentStreak: 3, LongestStreak: 5, Consistency: 86, ActiveDaysThisWeek: 6}, dash.Streaks)

	kinds := []string{}
	for _, in := range dash.Insights {
		kinds = append(kinds, in.Type)
	}
	require.Equal(t, []string{"achievement", "growth"}, kinds)
	require.Len(t, dash.Highlights, 1)
	require.Equal(t, "😊 2026-10-12", dash.Highlights[0].Content)

	year, err := f.dashboard.Dashboard(ctx, TimeRangeYear)
	require.NoError(t, err)
	require.Len(t, year.MoodAnalytics.MoodTrend, 7)
}

func TestDashboardEmptyUser(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.userCtx(t, "dash-empty")

	dash, err := f.dashboard.Dashboard(ctx, "decade")
	require.NoError(t, err)
	require.Equal(t, TimeRangeWeek, dash.TimeRange)
	require.Equal(t, TrendStable, dash.Wellness.Trend)
	require.Empty(t, dash.MoodAnalytics.MoodTrend)
	require.Nil(t, dash.Activity.MostActiveDay)
	require.Empty(t, dash.Insights)
	require.Empty(t, dash.Highlights)

	_, err = f.dashboard.Dashboard(context.Background(), TimeRangeWeek)
	require.True(t, apierr.IsCode(err, apierr.CodeUnauthorized))
}

func TestMoodTrend(t *testing.T) {
	moods := func(rates ...int) []*types.MoodEntry {
		out := make([]*types.MoodEntry, 0, len(rates))
		for _, r := range rates {
			out = append(out, &types.MoodEntry{MoodRate: r})
		}
		return out
	}
	cases := []struct {
		name  string
		moods []*types.MoodEntry
		want  string
	}{
		{"none", nil, TrendStable},
		{"single", moods(9), TrendStable},
		{"no previous window", moods(2, 5, 9), TrendStable},
		{"rising", moods(4, 4, 4, 8, 8, 8), TrendImproving},
		{"falling", moods(8, 8, 8, 4, 4, 4), TrendDeclining},
		{"within half a point", moods(5, 5, 5, 5, 5, 6), TrendStable},
		{"short previous window", moods(2, 7, 7, 7), TrendImproving},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MoodTrend(tc.moods))
		})
	}
}

func TestWellnessScoreClamps(t *testing.T) {
	require.Equal(t, 0, WellnessScore(0, 0, 0))
	require.Equal(t, 100, WellnessScore(10000, 10, 30))
	require.Equal(t, 37, WellnessScore(100, 6, 3))
}

func TestGreetingAndRecommendations(t *testing.T) {
	require.Equal(t, "Good morning", Greeting(dayOffset(0, 9)))
	require.Equal(t, "Good afternoon", Greeting(dayOffset(0, 12)))
	require.Equal(t, "Good evening", Greeting(dayOffset(0, 17)))

	titles := func(recs []Recommendation) []string {
		out := []string{}
		for _, r := range recs {
			out = append(out, r.Title)
		}
		return out
	}
	require.Equal(t, []string{"Check in with yourself", "Start your journaling journey"}, titles(Recommendations(nil, 0, 0)))
	require.Equal(t, []string{"Self-care reminder", "Begin perspective work"},
		titles(Recommendations(&types.MoodEntry{MoodRate: 2}, 4, 0)))
	require.Equal(t, []string{"Mindful reflection", "Mindful breathing"},
		titles(Recommendations(&types.MoodEntry{MoodRate: 5, MoodEmoji: thinkingEmoji}, 1, 1)))
	require.Equal(t, []string{"Mindful breathing", "Gratitude practice"},
		titles(Recommendations(&types.MoodEntry{MoodRate: 5}, 1, 1)))
}

func TestHome(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "home")
	bg := context.Background()

	testutil.SeedMood(t, bg, f.db, u.ID, dayOffset(0, 0), "😊", 8)
	testutil.SeedMood(t, bg, f.db, u.ID, dayOffset(-3, 0), "😐", 5)
	testutil.SeedDailySummary(t, bg, f.db, u.ID, dayOffset(-1, 0), 7)
	testutil.SeedNotification(t, bg, f.db, &types.Notification{
		UserID: u.ID, Title: "Unread", Message: "m", Type: types.NotificationTypeMilestone, SentAt: testutil.PtrTime(fixedNow),
	})
	testutil.SeedNotification(t, bg, f.db, &types.Notification{
		UserID: u.ID, Title: "Read", Message: "m", Type: types.NotificationTypeMilestone, SentAt: testutil.PtrTime(fixedNow), IsRead: true,
	})

	home, err := f.dashboard.Home(ctx)
	require.NoError(t, err)
	require.Equal(t, "Good afternoon", home.Greeting)
	require.Equal(t, "A", home.User.Name)
	require.NotNil(t, home.TodayMood)
	require.Equal(t, 8, home.TodayMood.MoodRate)
	require.Empty(t, home.RecentActivity.Journals)
	require.Empty(t, home.RecentActivity.Sessions)
	require.Equal(t, int64(1), home.RecentActivity.UnreadNotifications)

	require.Len(t, home.MoodTrends, 7)
	require.Equal(t, "2026-10-08", home.MoodTrends[0].Date)
	require.Equal(t, "Thu", home.MoodTrends[0].Day)
	require.Nil(t, home.MoodTrends[0].MoodRate)
	require.Equal(t, 5, *home.MoodTrends[3].MoodRate)
	require.Equal(t, 7, *home.MoodTrends[5].OverallWellness)
	require.Equal(t, "seeded", *home.MoodTrends[5].AISummary)
	require.Equal(t, 8, *home.MoodTrends[6].MoodRate)

	require.Len(t, home.Recommendations, 2)
	require.Equal(t, "Share your positive energy", home.Recommendations[0].Title)
	require.Equal(t, "Start your journaling journey", home.Recommendations[1].Title)
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "stats")
	bg := context.Background()

	testutil.SeedJournal(t, bg, f.db, u.ID, dayOffset(0, 9), "today")
	testutil.SeedJournal(t, bg, f.db, u.ID, dayOffset(-1, 9), "yesterday")
	testutil.SeedJournal(t, bg, f.db, u.ID, dayOffset(-4, 9), "earlier")
	testutil.SeedSession(t, bg, f.db, u.ID, dayOffset(0, 10), types.SessionStatusCompleted)
	testutil.SeedSession(t, bg, f.db, u.ID, dayOffset(0, 11), types.SessionStatusInput)

	stats, err := f.dashboard.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, &UserStats{CompletedSessions: 1, CurrentStreak: 2, TotalPoints: 15}, stats)
}
