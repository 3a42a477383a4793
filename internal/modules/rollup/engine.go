// Package rollup derives daily, weekly and monthly summaries from raw activity and
// runs them as batches over active users.
package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusExists     Status = "exists"
	StatusNoActivity Status = "no_activity"
)

// Outcome is the result of one generate call. Summary is nil only for no_activity.
type Outcome[T any] struct {
	Status  Status `json:"status"`
	Summary *T     `json:"summary,omitempty"`
}

type (
	DailyOutcome   = Outcome[types.DailySummary]
	WeeklyOutcome  = Outcome[types.WeeklySummary]
	MonthlyOutcome = Outcome[types.MonthlySummary]
)

const (
	WeeklyReadyTitle  = "Your Weekly Summary is Ready! 📊"
	MonthlyReadyTitle = "Your Monthly Summary is Ready! 🗓️"
)

// Notifier delivers the "summary ready" notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, notifType string, scheduledFor *time.Time) (*types.Notification, error)
}

type Engine struct {
	source    ActivitySource
	summaries repos.SummaryRepo
	analyzer  analyzer.SummaryAnalyzer
	notifier  Notifier
	log       *logger.Logger
}

// NewEngine wires the engine. notifier may be nil, in which case nothing is announced.
func NewEngine(source ActivitySource, summaries repos.SummaryRepo, an analyzer.SummaryAnalyzer, notifier Notifier, baseLog *logger.Logger) *Engine {
	return &Engine{
		source:    source,
		summaries: summaries,
		analyzer:  an,
		notifier:  notifier,
		log:       baseLog.With("component", "RollupEngine"),
	}
}

func (e *Engine) GenerateDaily(ctx context.Context, userID uuid.UUID, date time.Time) (DailyOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "rollup.daily", attribute.String("user_id", userID.String()))
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	key := periods.DayKeyOf(date)
	existing, err := e.summaries.GetDaily(dbc, userID, key)
	if err != nil {
		return DailyOutcome{}, fmt.Errorf("load daily summary: %w", err)
	}
	if existing != nil {
		return DailyOutcome{Status: StatusExists, Summary: existing}, nil
	}

	bounds := periods.DayBounds(date)
	act, err := e.source.FetchWindow(ctx, userID, bounds.Start, bounds.End, false)
	if err != nil {
		return DailyOutcome{}, fmt.Errorf("fetch day activity: %w", err)
	}
	if act.Empty() {
		return DailyOutcome{Status: StatusNoActivity}, nil
	}

	var mood *types.MoodEntry
	if len(act.Moods) > 0 {
		mood = act.Moods[0]
	}
	in := analyzer.DayInput{
		Date:     bounds.Start,
		Journals: journalPoints(act.Journals),
		Sessions: sessionPoints(act.Sessions),
	}
	if mood != nil {
		in.Mood = &analyzer.MoodPoint{Date: mood.Date, Emoji: mood.MoodEmoji, Rate: mood.Rate()}
	}
	res, err := e.analyzer.AnalyzeDay(ctx, in)
	if err != nil {
		return DailyOutcome{}, fmt.Errorf("analyze day: %w", err)
	}

	n := periods.Numbers(bounds.Start)
	row := &types.DailySummary{
		UserID:           userID,
		Date:             bounds.Start,
		Day:              n.Day,
		Week:             n.Week,
		Month:            n.Month,
		Year:             n.Year,
		Scores:           toScores(res.Scores),
		AISummary:        res.ShortSummary,
		KeyInsights:      stringSlice(res.Insights),
		JournalCount:     len(act.Journals),
		PerspectiveCount: len(act.Sessions),
		MoodIDs:          ids(act.Moods, func(m *types.MoodEntry) uuid.UUID { return m.ID }),
		JournalIDs:       ids(act.Journals, func(j *types.JournalEntry) uuid.UUID { return j.ID }),
		SessionIDs:       ids(act.Sessions, func(s *types.PerspectiveSession) uuid.UUID { return s.ID }),
	}
	if mood != nil {
		emoji, rate := mood.MoodEmoji, mood.Rate()
		row.MoodEmoji = &emoji
		row.MoodRate = &rate
	}

	if err := e.summaries.CreateDaily(dbc, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			e.log.Debug("Daily summary created concurrently", "user_id", userID, "day", key.Day, "year", key.Year)
			winner, getErr := e.summaries.GetDaily(dbc, userID, key)
			if getErr != nil {
				return DailyOutcome{}, getErr
			}
			return DailyOutcome{Status: StatusExists, Summary: winner}, nil
		}
		return DailyOutcome{}, fmt.Errorf("insert daily summary: %w", err)
	}
	return DailyOutcome{Status: StatusCreated, Summary: row}, nil
}

func (e *Engine) GenerateWeekly(ctx context.Context, userID uuid.UUID, ref time.Time) (WeeklyOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "rollup.weekly", attribute.String("user_id", userID.String()))
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	r := periods.WeekBounds(ref)
	key := periods.WeekKeyOf(r)
	existing, err := e.summaries.GetWeekly(dbc, userID, key)
	if err != nil {
		return WeeklyOutcome{}, fmt.Errorf("load weekly summary: %w", err)
	}
	if existing != nil {
		return WeeklyOutcome{Status: StatusExists, Summary: existing}, nil
	}

	dailies, err := e.source.DailySummaries(ctx, userID, r.Start, r.End)
	if err != nil {
		return WeeklyOutcome{}, fmt.Errorf("fetch daily summaries: %w", err)
	}
	act, err := e.source.FetchWindow(ctx, userID, r.Start, r.End, true)
	if err != nil {
		return WeeklyOutcome{}, fmt.Errorf("fetch week activity: %w", err)
	}
	if len(dailies) == 0 && act.Empty() {
		return WeeklyOutcome{Status: StatusNoActivity}, nil
	}

	res, err := e.analyzer.AnalyzeWeek(ctx, analyzer.WeekInput{
		Start:    r.Start,
		End:      r.End,
		Dailies:  dailyPoints(dailies),
		Moods:    moodPoints(act.Moods),
		Journals: journalPoints(act.Journals),
		Sessions: sessionPoints(act.Sessions),
	})
	if err != nil {
		return WeeklyOutcome{}, fmt.Errorf("analyze week: %w", err)
	}

	row := &types.WeeklySummary{
		UserID:              userID,
		WeekStart:           r.Start,
		WeekEnd:             r.End,
		Week:                key.Week,
		Month:               key.Month,
		Year:                key.Year,
		AvgMoodRate:         AverageMoodRate(act.Moods),
		AvgMoodEmoji:        TopMoodEmoji(act.Moods),
		AvgWellnessScore:    AverageWellness(dailies),
		Scores:              toScores(res.Scores),
		Narrative:           toNarrative(res),
		TotalJournals:       len(act.Journals),
		TotalSessions:       len(act.Sessions),
		TotalMoods:          len(act.Moods),
		TotalDailySummaries: len(dailies),
		DailySummaryIDs:     ids(dailies, func(d *types.DailySummary) uuid.UUID { return d.ID }),
		JournalIDs:          ids(act.Journals, func(j *types.JournalEntry) uuid.UUID { return j.ID }),
		SessionIDs:          ids(act.Sessions, func(s *types.PerspectiveSession) uuid.UUID { return s.ID }),
		MoodIDs:             ids(act.Moods, func(m *types.MoodEntry) uuid.UUID { return m.ID }),
	}
	if err := e.summaries.CreateWeekly(dbc, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			winner, getErr := e.summaries.GetWeekly(dbc, userID, key)
			if getErr != nil {
				return WeeklyOutcome{}, getErr
			}
			return WeeklyOutcome{Status: StatusExists, Summary: winner}, nil
		}
		return WeeklyOutcome{}, fmt.Errorf("insert weekly summary: %w", err)
	}

	e.announce(ctx, userID, WeeklyReadyTitle, fmt.Sprintf(
		"Your summary for the week of %s is ready. %s", r.Start.Format("Jan 2"), row.ShortSummary))
	return WeeklyOutcome{Status: StatusCreated, Summary: row}, nil
}

func (e *Engine) GenerateMonthly(ctx context.Context, userID uuid.UUID, ref time.Time) (MonthlyOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "rollup.monthly", attribute.String("user_id", userID.String()))
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	r := periods.MonthBounds(ref)
	key := periods.MonthKeyOf(r)
	existing, err := e.summaries.GetMonthly(dbc, userID, key)
	if err != nil {
		return MonthlyOutcome{}, fmt.Errorf("load monthly summary: %w", err)
	}
	if existing != nil {
		return MonthlyOutcome{Status: StatusExists, Summary: existing}, nil
	}

	weeklies, err := e.source.WeeklySummaries(ctx, userID, r.Start, r.End)
	if err != nil {
		return MonthlyOutcome{}, fmt.Errorf("fetch weekly summaries: %w", err)
	}
	dailies, err := e.source.DailySummaries(ctx, userID, r.Start, r.End)
	if err != nil {
		return MonthlyOutcome{}, fmt.Errorf("fetch daily summaries: %w", err)
	}
	act, err := e.source.FetchWindow(ctx, userID, r.Start, r.End, true)
	if err != nil {
		return MonthlyOutcome{}, fmt.Errorf("fetch month activity: %w", err)
	}
	if len(weeklies) == 0 && len(dailies) == 0 && act.Empty() {
		return MonthlyOutcome{Status: StatusNoActivity}, nil
	}

	res, err := e.analyzer.AnalyzeMonth(ctx, analyzer.MonthInput{
		Start:    r.Start,
		End:      r.End,
		Weeklies: weeklyPoints(weeklies),
		Dailies:  dailyPoints(dailies),
		Moods:    moodPoints(act.Moods),
		Journals: journalPoints(act.Journals),
		Sessions: sessionPoints(act.Sessions),
	})
	if err != nil {
		return MonthlyOutcome{}, fmt.Errorf("analyze month: %w", err)
	}

	row := &types.MonthlySummary{
		UserID:               userID,
		MonthStart:           r.Start,
		MonthEnd:             r.End,
		Month:                key.Month,
		Year:                 key.Year,
		AvgMoodRate:          AverageMoodRate(act.Moods),
		AvgMoodEmoji:         TopMoodEmoji(act.Moods),
		AvgWellnessScore:     AverageWellness(dailies),
		Scores:               toScores(res.Scores),
		Narrative:            toNarrative(res),
		TotalJournals:        len(act.Journals),
		TotalSessions:        len(act.Sessions),
		TotalMoods:           len(act.Moods),
		TotalDailySummaries:  len(dailies),
		TotalWeeklySummaries: len(weeklies),
		DailySummaryIDs:      ids(dailies, func(d *types.DailySummary) uuid.UUID { return d.ID }),
		WeeklySummaryIDs:     ids(weeklies, func(w *types.WeeklySummary) uuid.UUID { return w.ID }),
		JournalIDs:           ids(act.Journals, func(j *types.JournalEntry) uuid.UUID { return j.ID }),
		SessionIDs:           ids(act.Sessions, func(s *types.PerspectiveSession) uuid.UUID { return s.ID }),
		MoodIDs:              ids(act.Moods, func(m *types.MoodEntry) uuid.UUID { return m.ID }),
	}
	if err := e.summaries.CreateMonthly(dbc, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			winner, getErr := e.summaries.GetMonthly(dbc, userID, key)
			if getErr != nil {
				return MonthlyOutcome{}, getErr
			}
			return MonthlyOutcome{Status: StatusExists, Summary: winner}, nil
		}
		return MonthlyOutcome{}, fmt.Errorf("insert monthly summary: %w", err)
	}

	e.announce(ctx, userID, MonthlyReadyTitle, fmt.Sprintf(
		"Your summary for %s is ready. %s", r.Start.Format("January 2006"), row.ShortSummary))
	return MonthlyOutcome{Status: StatusCreated, Summary: row}, nil
}

// announce never fails the rollup that triggered it.
func (e *Engine) announce(ctx context.Context, userID uuid.UUID, title, message string) {
	if e.notifier == nil {
		return
	}
	if _, err := e.notifier.Notify(ctx, userID, title, message, types.NotificationTypeAchievement, nil); err != nil {
		e.log.Warn("Summary notification failed", "user_id", userID, "title", title, "error", err)
	}
}

// AverageMoodRate is the mean rate over moods, counting unset rates as 5. It is nil
// when there are no moods.
func AverageMoodRate(moods []*types.MoodEntry) *float64 {
	if len(moods) == 0 {
		return nil
	}
	sum := 0
	for _, m := range moods {
		sum += m.Rate()
	}
	avg := float64(sum) / float64(len(moods))
	return &avg
}

// TopMoodEmoji is the emoji of the highest-rated mood; ties keep the earliest.
func TopMoodEmoji(moods []*types.MoodEntry) *string {
	var best *types.MoodEntry
	for _, m := range moods {
		if best == nil || m.Rate() > best.Rate() {
			best = m
		}
	}
	if best == nil {
		return nil
	}
	emoji := best.MoodEmoji
	return &emoji
}

func AverageWellness(dailies []*types.DailySummary) *float64 {
	if len(dailies) == 0 {
		return nil
	}
	sum := 0
	for _, d := range dailies {
		sum += d.OverallWellness
	}
	avg := float64(sum) / float64(len(dailies))
	return &avg
}

func toScores(s analyzer.Scores) types.Scores {
	s = s.Clamped()
	return types.Scores{
		HappinessScore:  s.Happiness,
		SadnessScore:    s.Sadness,
		AnxietyScore:    s.Anxiety,
		EnergyScore:     s.Energy,
		LonelinessScore: s.Loneliness,
		OverallWellness: s.OverallWellness,
	}
}

func fromScores(s types.Scores) analyzer.Scores {
	return analyzer.Scores{
		Happiness:       s.HappinessScore,
		Sadness:         s.SadnessScore,
		Anxiety:         s.AnxietyScore,
		Energy:          s.EnergyScore,
		Loneliness:      s.LonelinessScore,
		OverallWellness: s.OverallWellness,
	}
}

func toNarrative(res analyzer.PeriodResult) types.Narrative {
	return types.Narrative{
		DominantTheme:         res.DominantTheme,
		AISummary:             res.DetailedSummary,
		ShortSummary:          res.ShortSummary,
		DetailedSummary:       res.DetailedSummary,
		GrowthInsights:        stringSlice(res.Insights),
		AchievementHighlights: stringSlice(res.Achievements),
		ChallengesFaced:       stringSlice(res.Challenges),
		Recommendations:       stringSlice(res.Recommendations),
	}
}

func stringSlice(in []string) datatypes.JSONSlice[string] {
	if in == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](in)
}

func ids[T any](rows []T, id func(T) uuid.UUID) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(rows))
	for _, r := range rows {
		out = append(out, id(r).String())
	}
	return out
}

func moodPoints(moods []*types.MoodEntry) []analyzer.MoodPoint {
	out := make([]analyzer.MoodPoint, 0, len(moods))
	for _, m := range moods {
		out = append(out, analyzer.MoodPoint{Date: m.Date, Emoji: m.MoodEmoji, Rate: m.Rate()})
	}
	return out
}

func journalPoints(journals []*types.JournalEntry) []analyzer.JournalPoint {
	out := make([]analyzer.JournalPoint, 0, len(journals))
	for _, j := range journals {
		out = append(out, analyzer.JournalPoint{
			Date:      j.Date,
			Title:     j.Title,
			Content:   j.Content,
			Summary:   j.Summary,
			MoodEmoji: j.MoodEmoji,
			Tags:      []string(j.Tags),
		})
	}
	return out
}

func sessionPoints(sessions []*types.PerspectiveSession) []analyzer.SessionPoint {
	out := make([]analyzer.SessionPoint, 0, len(sessions))
	for _, s := range sessions {
		titles := make([]string, 0, len(s.Cards))
		for _, c := range s.Cards {
			titles = append(titles, c.Title)
		}
		out = append(out, analyzer.SessionPoint{Date: s.Date, Input: s.UserInput, Status: s.Status, CardTitles: titles})
	}
	return out
}

func dailyPoints(dailies []*types.DailySummary) []analyzer.DailyPoint {
	out := make([]analyzer.DailyPoint, 0, len(dailies))
	for _, d := range dailies {
		out = append(out, analyzer.DailyPoint{Date: d.Date, Scores: fromScores(d.Scores), Summary: d.AISummary})
	}
	return out
}

func weeklyPoints(weeklies []*types.WeeklySummary) []analyzer.WeeklyPoint {
	out := make([]analyzer.WeeklyPoint, 0, len(weeklies))
	for _, w := range weeklies {
		out = append(out, analyzer.WeeklyPoint{
			Start:         w.WeekStart,
			Scores:        fromScores(w.Scores),
			ShortSummary:  w.ShortSummary,
			DominantTheme: w.DominantTheme,
		})
	}
	return out
}
