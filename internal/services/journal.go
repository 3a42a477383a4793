package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/domain/wellness"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/retry"
)

const (
	maxJournalPoints = 50
	streakLookback   = 400 * 24 * time.Hour
	topTagCount      = 5
)

type JournalInput struct {
	Title     string
	Content   string
	MoodEmoji string
	Tags      []string
}

type JournalUpdate struct {
	Title     *string
	Content   *string
	MoodEmoji *string
	Tags      []string
}

type JournalListQuery struct {
	Page   int
	Limit  int
	Search string
	Mood   string
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

type JournalPage struct {
	Entries    []*types.JournalEntry `json:"entries"`
	Pagination Pagination            `json:"pagination"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type JournalStats struct {
	TotalEntries   int64      `json:"totalEntries"`
	TotalPoints    int        `json:"totalPoints"`
	WeeklyEntries  int64      `json:"weeklyEntries"`
	MonthlyEntries int64      `json:"monthlyEntries"`
	CurrentStreak  int        `json:"currentStreak"`
	LongestStreak  int        `json:"longestStreak"`
	TopTags        []TagCount `json:"topTags"`
}

type JournalService interface {
	Create(ctx context.Context, in JournalInput) (*types.JournalEntry, error)
	List(ctx context.Context, q JournalListQuery) (*JournalPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.JournalEntry, error)
	Update(ctx context.Context, id uuid.UUID, in JournalUpdate) (*types.JournalEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*JournalStats, error)
}

type journalService struct {
	db         *gorm.DB
	log        *logger.Logger
	journals   repos.JournalRepo
	users      repos.UserRepo
	analyzer   analyzer.Analyzer
	milestones MilestoneChecker
	retry      retry.Policy
	now        Clock
}

func NewJournalService(
	db *gorm.DB,
	log *logger.Logger,
	journals repos.JournalRepo,
	users repos.UserRepo,
	an analyzer.Analyzer,
	milestones MilestoneChecker,
	clock Clock,
) JournalService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	serviceLog := log.With("service", "JournalService")
	return &journalService{
		db:         db,
		log:        serviceLog,
		journals:   journals,
		users:      users,
		analyzer:   an,
		milestones: milestonesOrNop(milestones),
		retry:      retry.Store(serviceLog),
		now:        clock,
	}
}

// JournalPoints is one point per ten characters, capped at 50.
func JournalPoints(content string) int {
	p := utf8.RuneCountInString(content) / 10
	if p > maxJournalPoints {
		return maxJournalPoints
	}
	return p
}

func validateJournal(title, content string) error {
	if n := utf8.RuneCountInString(title); n < 1 || n > wellness.MaxJournalTitle {
		return apierr.Validation("title must be between 1 and %d characters", wellness.MaxJournalTitle)
	}
	if n := utf8.RuneCountInString(content); n < 1 || n > wellness.MaxJournalContent {
		return apierr.Validation("content must be between 1 and %d characters", wellness.MaxJournalContent)
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (js *journalService) Create(ctx context.Context, in JournalInput) (*types.JournalEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validateJournal(title, content); err != nil {
		return nil, err
	}

	analysis, err := js.analyzer.AnalyzeJournal(ctx, title, content)
	if err != nil {
		js.log.Warn("Journal analysis failed, using fallback", "user_id", userID, "error", err)
		analysis = analyzer.FallbackJournal(content)
	}
	emoji := strings.TrimSpace(in.MoodEmoji)
	if emoji == "" {
		emoji = analysis.MoodEmoji
	}
	tags := cleanTags(in.Tags)
	if len(tags) == 0 {
		tags = analysis.Tags
	}

	now := js.now()
	entry := &types.JournalEntry{
		UserID:       userID,
		Title:        title,
		Content:      content,
		MoodEmoji:    emoji,
		Summary:      analysis.Summary,
		Tags:         datatypes.JSONSlice[string](tags),
		PointsEarned: JournalPoints(content),
		Date:         now,
	}

	if err := js.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := js.journals.Create(dbc, []*types.JournalEntry{entry}); err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		if err := js.users.IncrementPoints(dbc, userID, entry.PointsEarned); err != nil {
			return fmt.Errorf("award points: %w", err)
		}
		return js.refreshStreaks(dbc, userID, now)
	}); err != nil {
		return nil, err
	}

	js.milestones.CheckQuietly(ctx, userID, now)
	return entry, nil
}

// refreshStreaks recomputes the user's journaling streak after a write.
func (js *journalService) refreshStreaks(dbc dbctx.Context, userID uuid.UUID, now time.Time) error {
	dates, err := js.journals.ListDatesSince(dbc, userID, now.Add(-streakLookback))
	if err != nil {
		return fmt.Errorf("list journal dates: %w", err)
	}
	u, err := js.users.GetByID(dbc, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return apierr.NotFound("user")
	}
	current := CurrentStreak(dates, now)
	longest := u.LongestStreak
	if current > longest {
		longest = current
	}
	if current == u.CurrentStreak && longest == u.LongestStreak {
		return nil
	}
	return js.users.UpdateStreaks(dbc, userID, current, longest)
}

// CurrentStreak counts consecutive calendar days with an entry, ending today or, when
// today has none yet, yesterday.
func CurrentStreak(dates []time.Time, now time.Time) int {
	loc := now.Location()
	days := map[string]bool{}
	for _, d := range dates {
		days[d.In(loc).Format("2006-01-02")] = true
	}
	day := periods.StartOfDay(now)
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (js *journalService) List(ctx context.Context, q JournalListQuery) (*JournalPage, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	filter := repos.JournalFilter{
		Search: strings.TrimSpace(q.Search),
		Mood:   strings.TrimSpace(q.Mood),
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	}
	var (
		entries []*types.JournalEntry
		total   int64
	)
	err = js.retry.Do(ctx, "journal.list", func(ctx context.Context) error {
		var err error
		entries, total, err = js.journals.List(dbctx.Context{Ctx: ctx}, userID, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return &JournalPage{
		Entries: entries,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    q.Page < totalPages,
		},
	}, nil
}

func (js *journalService) Get(ctx context.Context, id uuid.UUID) (*types.JournalEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := retry.Value(ctx, js.retry, "journal.get", func(ctx context.Context) (*types.JournalEntry, error) {
		return js.journals.GetByIDForUser(dbctx.Context{Ctx: ctx}, userID, id)
	})
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	if entry == nil {
		return nil, apierr.NotFound("journal entry")
	}
	return entry, nil
}

func (js *journalService) Update(ctx context.Context, id uuid.UUID, in JournalUpdate) (*types.JournalEntry, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	current, err := js.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	title, content := current.Title, current.Content
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		updates["title"] = title
	}
	if in.Content != nil {
		content = strings.TrimSpace(*in.Content)
		updates["content"] = content
	}
	if err := validateJournal(title, content); err != nil {
		return nil, err
	}
	if in.MoodEmoji != nil {
		updates["mood_emoji"] = strings.TrimSpace(*in.MoodEmoji)
	}
	if in.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](cleanTags(in.Tags))
	}
	if len(updates) == 0 {
		return current, nil
	}

	ok, err := retry.Value(ctx, js.retry, "journal.update", func(ctx context.Context) (bool, error) {
		return js.journals.UpdateFields(dbctx.Context{Ctx: ctx}, userID, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update journal: %w", err)
	}
	if !ok {
		return nil, apierr.NotFound("journal entry")
	}
	return js.Get(ctx, id)
}

func (js *journalService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	ok, err := retry.Value(ctx, js.retry, "journal.delete", func(ctx context.Context) (bool, error) {
		return js.journals.Delete(dbctx.Context{Ctx: ctx}, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	if !ok {
		return apierr.NotFound("journal entry")
	}
	return nil
}

func (js *journalService) Stats(ctx context.Context) (*JournalStats, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := js.now()
	today := periods.StartOfDay(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	return retry.Value(ctx, js.retry, "journal.stats", func(ctx context.Context) (*JournalStats, error) {
		dbc := dbctx.Context{Ctx: ctx}
		out := &JournalStats{TopTags: []TagCount{}}
		var err error
		if out.TotalEntries, err = js.journals.CountByUser(dbc, userID); err != nil {
			return nil, err
		}
		if out.WeeklyEntries, err = js.journals.CountSince(dbc, userID, weekStart); err != nil {
			return nil, err
		}
		if out.MonthlyEntries, err = js.journals.CountSince(dbc, userID, monthStart); err != nil {
			return nil, err
		}
		dates, err := js.journals.ListDatesSince(dbc, userID, now.Add(-streakLookback))
		if err != nil {
			return nil, err
		}
		out.CurrentStreak = CurrentStreak(dates, now)
		u, err := js.users.GetByID(dbc, userID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			out.TotalPoints = u.TotalPoints
			out.LongestStreak = u.LongestStreak
		}
		tags, err := js.journals.ListTags(dbc, userID)
		if err != nil {
			return nil, err
		}
		out.TopTags = topTags(tags, topTagCount)
		return out, nil
	})
}

func topTags(rows [][]string, n int) []TagCount {
	counts := map[string]int{}
	for _, tags := range rows {
		for _, t := range tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
