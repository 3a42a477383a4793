package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/retry"
)

const (
	TimeRangeWeek    = "week"
	TimeRangeMonth   = "month"
	TimeRangeQuarter = "quarter"
	TimeRangeYear    = "year"

	dashboardMoodCap     = 100
	dashboardJournalCap  = 50
	dashboardSessionCap  = 30
	dashboardDailyCap    = 30
	dashboardWeeklyCap   = 12
	dashboardActivityCap = 50
	dashboardInsightCap  = 4
	homeRecentCount      = 3
	homeChartDays        = 7
	homeRecommendations  = 2
	thinkingEmoji        = "🤔"
)

var timeRangeDays = map[string]int{
	TimeRangeWeek:    7,
	TimeRangeMonth:   30,
	TimeRangeQuarter: 90,
	TimeRangeYear:    365,
}

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

type WellnessOverview struct {
	WellnessScore   int     `json:"wellnessScore"`
	AverageMood     float64 `json:"averageMood"`
	OverallWellness float64 `json:"overallWellness"`
	TotalPoints     int     `json:"totalPoints"`
	Trend           string  `json:"trend"`
}

type MoodTrendPoint struct {
	Date  string `json:"date"`
	Mood  int    `json:"mood"`
	Emoji string `json:"emoji"`
}

type MoodInsight struct {
	Type string    `json:"type"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

type MoodAnalytics struct {
	AverageMood      float64          `json:"averageMood"`
	MoodTrend        []MoodTrendPoint `json:"moodTrend"`
	MoodDistribution map[string]int   `json:"moodDistribution"`
	Insights         []MoodInsight    `json:"insights"`
}

type ActivityMetrics struct {
	TotalActivities          int            `json:"totalActivities"`
	ActivityByType           map[string]int `json:"activityByType"`
	EngagementScore          int            `json:"engagementScore"`
	MostActiveDay            *string        `json:"mostActiveDay"`
	JournalsCount            int            `json:"journalsCount"`
	PerspectiveSessionsCount int            `json:"perspectiveSessionsCount"`
	MoodEntriesCount         int            `json:"moodEntriesCount"`
}

type JournalRef struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	MoodEmoji string    `json:"moodEmoji"`
	Date      time.Time `json:"date"`
}

type JournalInsights struct {
	TotalEntries  int            `json:"totalEntries"`
	AverageLength int            `json:"averageLength"`
	TopTags       []TagCount     `json:"topTags"`
	MoodPatterns  map[string]int `json:"moodPatterns"`
	RecentEntries []JournalRef   `json:"recentEntries"`
}

type StreakInfo struct {
	CurrentStreak      int `json:"currentStreak"`
	LongestStreak      int `json:"longestStreak"`
	Consistency        int `json:"consistency"`
	ActiveDaysThisWeek int `json:"activeDaysThisWeek"`
}

type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Priority    string `json:"priority"`
}

type Highlight struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Items   []string `json:"items,omitempty"`
	Content string   `json:"content,omitempty"`
	Icon    string   `json:"icon"`
}

type Dashboard struct {
	Wellness        WellnessOverview `json:"wellness"`
	MoodAnalytics   MoodAnalytics    `json:"moodAnalytics"`
	Activity        ActivityMetrics  `json:"activity"`
	JournalInsights JournalInsights  `json:"journalInsights"`
	Streaks         StreakInfo       `json:"streaks"`
	Insights        []Insight        `json:"insights"`
	Highlights      []Highlight      `json:"highlights"`
	TimeRange       string           `json:"timeRange"`
}

type UserStats struct {
	CompletedSessions int64 `json:"completedSessions"`
	CurrentStreak     int   `json:"currentStreak"`
	TotalPoints       int64 `json:"totalPoints"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type HomeJournal struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	MoodEmoji string    `json:"mood_emoji"`
	CreatedAt time.Time `json:"created_at"`
}

type HomeSession struct {
	ID        uuid.UUID `json:"id"`
	UserInput string    `json:"user_input"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type HomeActivity struct {
	Journals            []HomeJournal `json:"journals"`
	Sessions            []HomeSession `json:"sessions"`
	UnreadNotifications int64         `json:"unreadNotifications"`
}

// HomeDay is one day of the home chart. Days without a check-in or summary carry nils.
type HomeDay struct {
	Date            string  `json:"date"`
	Day             string  `json:"day"`
	MoodRate        *int    `json:"mood_rate"`
	MoodEmoji       *string `json:"mood_emoji"`
	OverallWellness *int    `json:"overall_wellness"`
	AISummary       *string `json:"ai_summary"`
}

type HomeUser struct {
	Name string `json:"name"`
}

type Home struct {
	Greeting        string           `json:"greeting"`
	User            HomeUser         `json:"user"`
	TodayMood       *types.MoodEntry `json:"todayMood"`
	RecentActivity  HomeActivity     `json:"recentActivity"`
	MoodTrends      []HomeDay        `json:"moodTrends"`
	Recommendations []Recommendation `json:"recommendations"`
}

// DashboardService serves read-only aggregates over the caller's activity.
type DashboardService interface {
	// Dashboard covers the trailing timeRange window; unknown ranges fall back to a week.
	Dashboard(ctx context.Context, timeRange string) (*Dashboard, error)
	Home(ctx context.Context) (*Home, error)
	Stats(ctx context.Context) (*UserStats, error)
}

type dashboardService struct {
	log       *logger.Logger
	users     repos.UserRepo
	moods     repos.MoodRepo
	journals  repos.JournalRepo
	sessions  repos.SessionRepo
	summaries repos.SummaryRepo
	notes     repos.NotificationRepo
	retry     retry.Policy
	now       Clock
}

func NewDashboardService(
	log *logger.Logger,
	users repos.UserRepo,
	moods repos.MoodRepo,
	journals repos.JournalRepo,
	sessions repos.SessionRepo,
	summaries repos.SummaryRepo,
	notes repos.NotificationRepo,
	clock Clock,
) DashboardService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	serviceLog := log.With("service", "DashboardService")
	return &dashboardService{
		log:       serviceLog,
		users:     users,
		moods:     moods,
		journals:  journals,
		sessions:  sessions,
		summaries: summaries,
		notes:     notes,
		retry:     retry.Store(serviceLog),
		now:       clock,
	}
}

// NormalizeTimeRange maps an unknown or empty range onto week.
func NormalizeTimeRange(r string) string {
	if _, ok := timeRangeDays[r]; ok {
		return r
	}
	return TimeRangeWeek
}

// dashboardData is everything one dashboard is computed from. Moods are oldest
// first; every other slice is newest first.
type dashboardData struct {
	user     *types.User
	moods    []*types.MoodEntry
	journals []*types.JournalEntry
	sessions []*types.PerspectiveSession
	dailies  []*types.DailySummary
	weeklies []*types.WeeklySummary
}

func (ds *dashboardService) Dashboard(ctx context.Context, timeRange string) (*Dashboard, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	timeRange = NormalizeTimeRange(timeRange)
	now := ds.now()
	start := now.Add(-time.Duration(timeRangeDays[timeRange]) * 24 * time.Hour)

	data, err := retry.Value(ctx, ds.retry, "dashboard.load", func(ctx context.Context) (*dashboardData, error) {
		return ds.load(ctx, userID, start, now)
	})
	if err != nil {
		return nil, err
	}
	dash := buildDashboard(data, now)
	dash.TimeRange = timeRange
	ds.log.Debug("Built dashboard", "user_id", userID, "time_range", timeRange, "activities", dash.Activity.TotalActivities)
	return dash, nil
}

func (ds *dashboardService) load(ctx context.Context, userID uuid.UUID, start, end time.Time) (*dashboardData, error) {
	out := &dashboardData{}
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}

	g.Go(func() error {
		u, err := ds.users.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apierr.NotFound("user")
		}
		out.user = u
		return nil
	})
	g.Go(func() error {
		moods, err := ds.moods.ListRange(dbc, userID, start, end, true)
		if err != nil {
			return err
		}
		if len(moods) > dashboardMoodCap {
			moods = moods[:dashboardMoodCap]
		}
		out.moods = moods
		return nil
	})
	g.Go(func() error {
		journals, err := ds.journals.ListRange(dbc, userID, start, end, true)
		if err != nil {
			return err
		}
		out.journals = newestFirst(journals, dashboardJournalCap)
		return nil
	})
	g.Go(func() error {
		sessions, err := ds.sessions.ListRange(dbc, userID, start, end, true)
		if err != nil {
			return err
		}
		out.sessions = newestFirst(sessions, dashboardSessionCap)
		return nil
	})
	g.Go(func() error {
		dailies, err := ds.summaries.ListDailyRange(dbc, userID, start, end)
		if err != nil {
			return err
		}
		if len(dailies) > dashboardDailyCap {
			dailies = dailies[:dashboardDailyCap]
		}
		out.dailies = dailies
		return nil
	})
	g.Go(func() error {
		weeklies, err := ds.summaries.ListWeeklyRange(dbc, userID, start, end)
		if err != nil {
			return err
		}
		out.weeklies = newestFirst(weeklies, dashboardWeeklyCap)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// newestFirst reverses an oldest-first slice and keeps at most n rows.
func newestFirst[T any](in []T, n int) []T {
	out := make([]T, 0, len(in))
	for i := len(in) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, in[i])
	}
	return out
}

func buildDashboard(d *dashboardData, now time.Time) *Dashboard {
	acts := activities(d)
	return &Dashboard{
		Wellness:        wellnessOverview(d),
		MoodAnalytics:   moodAnalytics(d),
		Activity:        activityMetrics(d, acts),
		JournalInsights: journalInsights(d.journals),
		Streaks:         streakInfo(d.user, acts, now),
		Insights:        personalizedInsights(d),
		Highlights:      highlights(d),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func averageMood(moods []*types.MoodEntry) float64 {
	if len(moods) == 0 {
		return 0
	}
	sum := 0
	for _, m := range moods {
		sum += m.Rate()
	}
	return float64(sum) / float64(len(moods))
}

// WellnessScore blends points, mood and streak into 0..100.
func WellnessScore(totalPoints int, avgMood float64, currentStreak int) int {
	score := float64(totalPoints)/100*0.3 +
		avgMood/10*0.4*100 +
		float64(currentStreak)/7*0.3*100
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

func wellnessOverview(d *dashboardData) WellnessOverview {
	avg := averageMood(d.moods)
	overall := avg
	if len(d.dailies) > 0 {
		sum := 0
		for _, s := range d.dailies {
			sum += s.OverallWellness
		}
		overall = float64(sum) / float64(len(d.dailies))
	}
	return WellnessOverview{
		WellnessScore:   WellnessScore(d.user.TotalPoints, avg, d.user.CurrentStreak),
		AverageMood:     round2(avg),
		OverallWellness: round2(overall),
		TotalPoints:     d.user.TotalPoints,
		Trend:           MoodTrend(d.moods),
	}
}

// MoodTrend compares the last three check-ins with the three before them. A move of
// more than half a point either way is a trend.
func MoodTrend(moods []*types.MoodEntry) string {
	if len(moods) < 2 {
		return TrendStable
	}
	split := len(moods) - 3
	if split < 0 {
		split = 0
	}
	prevStart := split - 3
	if prevStart < 0 {
		prevStart = 0
	}
	previous := moods[prevStart:split]
	if len(previous) == 0 {
		return TrendStable
	}
	recent := averageMood(moods[split:])
	before := averageMood(previous)
	switch {
	case recent > before+0.5:
		return TrendImproving
	case recent < before-0.5:
		return TrendDeclining
	}
	return TrendStable
}

// MoodRange buckets a 1..10 rate for the distribution chart.
func MoodRange(rate int) string {
	switch {
	case rate >= 8:
		return "Excellent"
	case rate >= 6:
		return "Good"
	case rate >= 4:
		return "Okay"
	case rate >= 2:
		return "Low"
	}
	return "Very Low"
}

func moodAnalytics(d *dashboardData) MoodAnalytics {
	out := MoodAnalytics{
		MoodTrend:        []MoodTrendPoint{},
		MoodDistribution: map[string]int{},
		Insights:         []MoodInsight{},
	}
	if len(d.moods) == 0 {
		return out
	}
	out.AverageMood = round2(averageMood(d.moods))
	for _, m := range d.moods {
		out.MoodTrend = append(out.MoodTrend, MoodTrendPoint{
			Date:  m.Date.Format("2006-01-02"),
			Mood:  m.Rate(),
			Emoji: m.MoodEmoji,
		})
		out.MoodDistribution[MoodRange(m.Rate())]++
	}
	if len(d.dailies) > 0 && d.dailies[0].AISummary != "" {
		out.Insights = append(out.Insights, MoodInsight{Type: "ai_insight", Text: d.dailies[0].AISummary, Date: d.dailies[0].Date})
	}
	return out
}

type activity struct {
	kind string
	at   time.Time
}

// activities merges the window's check-ins, entries and sessions, newest first.
func activities(d *dashboardData) []activity {
	out := make([]activity, 0, len(d.moods)+len(d.journals)+len(d.sessions))
	for _, m := range d.moods {
		out = append(out, activity{kind: "mood", at: m.Date})
	}
	for _, j := range d.journals {
		out = append(out, activity{kind: "journal", at: j.Date})
	}
	for _, s := range d.sessions {
		out = append(out, activity{kind: "perspective", at: s.Date})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.After(out[j].at) })
	if len(out) > dashboardActivityCap {
		out = out[:dashboardActivityCap]
	}
	return out
}

func activityMetrics(d *dashboardData, acts []activity) ActivityMetrics {
	byType := map[string]int{}
	byDay := map[string]int{}
	var mostActive *string
	best := 0
	for _, a := range acts {
		byType[a.kind]++
		day := a.at.Format("2006-01-02")
		byDay[day]++
		// acts is newest first, so a tie keeps the most recent day.
		if byDay[day] > best {
			best = byDay[day]
			mostActive = &day
		}
	}
	engagement := len(d.journals)*10 + len(d.sessions)*15 + byType["mood"]*5
	if engagement > 100 {
		engagement = 100
	}
	return ActivityMetrics{
		TotalActivities:          len(acts),
		ActivityByType:           byType,
		EngagementScore:          engagement,
		MostActiveDay:            mostActive,
		JournalsCount:            len(d.journals),
		PerspectiveSessionsCount: len(d.sessions),
		MoodEntriesCount:         byType["mood"],
	}
}

func journalInsights(journals []*types.JournalEntry) JournalInsights {
	out := JournalInsights{
		TopTags:       []TagCount{},
		MoodPatterns:  map[string]int{},
		RecentEntries: []JournalRef{},
	}
	if len(journals) == 0 {
		return out
	}
	out.TotalEntries = len(journals)
	chars := 0
	tags := make([][]string, 0, len(journals))
	for _, j := range journals {
		chars += utf8.RuneCountInString(j.Content)
		tags = append(tags, []string(j.Tags))
		if j.MoodEmoji != "" {
			out.MoodPatterns[j.MoodEmoji]++
		}
	}
	out.AverageLength = int(math.Round(float64(chars) / float64(len(journals))))
	out.TopTags = topTags(tags, topTagCount)
	for i, j := range journals {
		if i == homeRecentCount {
			break
		}
		out.RecentEntries = append(out.RecentEntries, JournalRef{ID: j.ID, Title: j.Title, MoodEmoji: j.MoodEmoji, Date: j.Date})
	}
	return out
}

// streakInfo counts distinct active days over the last seven calendar days.
func streakInfo(u *types.User, acts []activity, now time.Time) StreakInfo {
	since := periods.StartOfDay(now).AddDate(0, 0, -(homeChartDays - 1))
	days := map[string]struct{}{}
	for _, a := range acts {
		if !a.at.Before(since) && !a.at.After(now) {
			days[a.at.Format("2006-01-02")] = struct{}{}
		}
	}
	return StreakInfo{
		CurrentStreak:      u.CurrentStreak,
		LongestStreak:      u.LongestStreak,
		Consistency:        int(math.Round(float64(len(days)) / float64(homeChartDays) * 100)),
		ActiveDaysThisWeek: len(days),
	}
}

func personalizedInsights(d *dashboardData) []Insight {
	out := []Insight{}
	if len(d.moods) > 0 {
		recent := d.moods
		if len(recent) > 7 {
			recent = recent[len(recent)-7:]
		}
		switch avg := averageMood(recent); {
		case avg >= 8:
			out = append(out, Insight{
				Type:        "positive",
				Title:       "High Energy Detected",
				Description: "Your mood has been consistently positive lately. This is a great time to tackle new challenges!",
				Icon:        "⚡",
				Priority:    "high",
			})
		case avg <= 4:
			out = append(out, Insight{
				Type:        "support",
				Title:       "Gentle Reminder",
				Description: "Consider some self-care activities. Your well-being matters, and taking breaks is perfectly okay.",
				Icon:        "💙",
				Priority:    "high",
			})
		}
	}
	if len(d.journals) > 0 {
		out = append(out, Insight{
			Type:        "achievement",
			Title:       "Consistent Journaling",
			Description: fmt.Sprintf("You've written %d journal entries. Writing regularly helps process emotions effectively.", len(d.journals)),
			Icon:        "📝",
			Priority:    "medium",
		})
	}
	if len(d.sessions) > 0 {
		out = append(out, Insight{
			Type:        "growth",
			Title:       "Growth Mindset",
			Description: "Your perspective sessions show commitment to personal growth. Keep exploring new viewpoints!",
			Icon:        "🌱",
			Priority:    "medium",
		})
	}
	if len(d.dailies) > 0 && len(d.dailies[0].KeyInsights) > 0 {
		desc := d.dailies[0].AISummary
		if desc == "" {
			desc = "Keep tracking your wellness journey for more personalized insights."
		}
		out = append(out, Insight{Type: "ai_insight", Title: "Daily Reflection", Description: desc, Icon: "🤖", Priority: "low"})
	}
	if len(out) > dashboardInsightCap {
		out = out[:dashboardInsightCap]
	}
	return out
}

func highlights(d *dashboardData) []Highlight {
	out := []Highlight{}
	if len(d.weeklies) > 0 {
		latest := d.weeklies[0]
		if len(latest.AchievementHighlights) > 0 {
			out = append(out, Highlight{Type: "achievement", Title: "Weekly Achievements", Items: []string(latest.AchievementHighlights), Icon: "🏆"})
		}
		if latest.DominantTheme != "" {
			out = append(out, Highlight{Type: "theme", Title: "Theme of the Week", Content: latest.DominantTheme, Icon: "🎯"})
		}
	}
	if len(d.moods) > 0 {
		best := d.moods[0]
		for _, m := range d.moods[1:] {
			if m.Rate() > best.Rate() {
				best = m
			}
		}
		out = append(out, Highlight{
			Type:    "mood",
			Title:   "Best Mood Day",
			Content: best.MoodEmoji + " " + best.Date.Format("2006-01-02"),
			Icon:    "😊",
		})
	}
	return out
}

// Greeting picks the salutation for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	}
	return "Good evening"
}

var generalRecommendations = []Recommendation{
	{Title: "Mindful breathing", Description: "Take 5 deep breaths", Type: "mindfulness"},
	{Title: "Gratitude practice", Description: "Think of three things you're grateful for", Type: "wellness"},
	{Title: "Gentle movement", Description: "Go for a short walk or stretch", Type: "wellness"},
}

// Recommendations suggests the next two things to do from today's mood and recent activity.
func Recommendations(today *types.MoodEntry, journalCount, sessionCount int) []Recommendation {
	out := []Recommendation{}
	switch {
	case today == nil:
		out = append(out, Recommendation{Title: "Check in with yourself", Description: "Take a moment to reflect on how you're feeling right now", Type: "mood"})
	case today.Rate() <= 3:
		out = append(out, Recommendation{Title: "Self-care reminder", Description: "You're having a tough day. Be gentle with yourself", Type: "support"})
	case today.Rate() >= 8:
		out = append(out, Recommendation{Title: "Share your positive energy", Description: "Reach out to someone who might need a boost", Type: "social"})
	case today.MoodEmoji == thinkingEmoji:
		out = append(out, Recommendation{Title: "Mindful reflection", Description: "Perfect time for some quiet contemplation or journaling", Type: "reflection"})
	}
	if journalCount == 0 {
		out = append(out, Recommendation{Title: "Start your journaling journey", Description: "Writing thoughts can help process emotions", Type: "journal"})
	}
	if sessionCount == 0 {
		out = append(out, Recommendation{Title: "Begin perspective work", Description: "A fresh perspective can help you see challenges differently", Type: "perspective"})
	}
	out = append(out, generalRecommendations...)
	return out[:homeRecommendations]
}

func (ds *dashboardService) Home(ctx context.Context) (*Home, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ds.now()
	today := periods.StartOfDay(now)
	chartStart := today.AddDate(0, 0, -(homeChartDays - 1))

	return retry.Value(ctx, ds.retry, "home.load", func(ctx context.Context) (*Home, error) {
		var (
			u         *types.User
			todayMood *types.MoodEntry
			journals  []*types.JournalEntry
			sessions  []*repos.SessionWithCardCount
			unread    int64
			moods     []*types.MoodEntry
			dailies   []*types.DailySummary
		)
		g, gctx := errgroup.WithContext(ctx)
		dbc := dbctx.Context{Ctx: gctx}
		g.Go(func() (err error) {
			u, err = ds.users.GetByID(dbc, userID)
			if err == nil && u == nil {
				err = apierr.NotFound("user")
			}
			return err
		})
		g.Go(func() (err error) {
			todayMood, err = ds.moods.GetForDay(dbc, userID, periods.DayKeyOf(now))
			return err
		})
		g.Go(func() (err error) {
			journals, _, err = ds.journals.List(dbc, userID, repos.JournalFilter{Limit: homeRecentCount})
			return err
		})
		g.Go(func() (err error) {
			sessions, err = ds.sessions.ListRecent(dbc, userID, homeRecentCount)
			return err
		})
		g.Go(func() (err error) {
			_, unread, err = ds.notes.ListForUser(dbc, userID, repos.NotificationListFilter{UnreadOnly: true, Limit: 1})
			return err
		})
		g.Go(func() (err error) {
			moods, err = ds.moods.ListRange(dbc, userID, chartStart, periods.EndOfDay(now), true)
			return err
		})
		g.Go(func() (err error) {
			dailies, err = ds.summaries.ListDailyRange(dbc, userID, chartStart, periods.EndOfDay(now))
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		home := &Home{
			Greeting:  Greeting(now),
			User:      HomeUser{Name: u.FirstName},
			TodayMood: todayMood,
			RecentActivity: HomeActivity{
				Journals:            make([]HomeJournal, 0, len(journals)),
				Sessions:            make([]HomeSession, 0, len(sessions)),
				UnreadNotifications: unread,
			},
			MoodTrends:      homeChart(chartStart, moods, dailies),
			Recommendations: Recommendations(todayMood, len(journals), len(sessions)),
		}
		for _, j := range journals {
			home.RecentActivity.Journals = append(home.RecentActivity.Journals, HomeJournal{ID: j.ID, Title: j.Title, MoodEmoji: j.MoodEmoji, CreatedAt: j.CreatedAt})
		}
		for _, s := range sessions {
			home.RecentActivity.Sessions = append(home.RecentActivity.Sessions, HomeSession{ID: s.ID, UserInput: s.UserInput, Status: s.Status, CreatedAt: s.CreatedAt})
		}
		return home, nil
	})
}

// homeChart lays check-ins and daily summaries over the seven days from start.
func homeChart(start time.Time, moods []*types.MoodEntry, dailies []*types.DailySummary) []HomeDay {
	moodByDay := make(map[string]*types.MoodEntry, len(moods))
	for _, m := range moods {
		moodByDay[m.Date.Format("2006-01-02")] = m
	}
	dailyByDay := make(map[string]*types.DailySummary, len(dailies))
	for _, s := range dailies {
		dailyByDay[s.Date.Format("2006-01-02")] = s
	}
	out := make([]HomeDay, 0, homeChartDays)
	for i := 0; i < homeChartDays; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		p := HomeDay{Date: key, Day: day.Format("Mon")}
		if m, ok := moodByDay[key]; ok {
			rate, emoji := m.Rate(), m.MoodEmoji
			p.MoodRate, p.MoodEmoji = &rate, &emoji
		}
		if s, ok := dailyByDay[key]; ok {
			wellness, summary := s.OverallWellness, s.AISummary
			p.OverallWellness, p.AISummary = &wellness, &summary
		}
		out = append(out, p)
	}
	return out
}

func (ds *dashboardService) Stats(ctx context.Context) (*UserStats, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ds.now()
	return retry.Value(ctx, ds.retry, "user.stats", func(ctx context.Context) (*UserStats, error) {
		dbc := dbctx.Context{Ctx: ctx}
		out := &UserStats{}
		var err error
		if out.CompletedSessions, err = ds.sessions.CountCompleted(dbc, userID); err != nil {
			return nil, err
		}
		dates, err := ds.journals.ListDatesSince(dbc, userID, now.Add(-streakLookback))
		if err != nil {
			return nil, err
		}
		out.CurrentStreak = CurrentStreak(dates, now)
		if out.TotalPoints, err = ds.journals.SumPoints(dbc, userID); err != nil {
			return nil, err
		}
		return out, nil
	})
}
