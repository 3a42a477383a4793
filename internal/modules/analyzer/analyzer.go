// Package analyzer turns raw wellness activity into scores and narrative text. The
// rollup pipeline talks to SummaryAnalyzer; the request path also uses the journal,
// quiz and card operations of Analyzer.
package analyzer

import (
	"context"
	"strings"
	"time"
)

const (
	MinScore     = 1
	MaxScore     = 10
	NeutralScore = 5
	maxListItems = 5
)

type Scores struct {
	Happiness       int `json:"happiness_score"`
	Sadness         int `json:"sadness_score"`
	Anxiety         int `json:"anxiety_score"`
	Energy          int `json:"energy_score"`
	Loneliness      int `json:"loneliness_score"`
	OverallWellness int `json:"overall_wellness"`
}

func NeutralScores() Scores {
	return Scores{
		Happiness:       NeutralScore,
		Sadness:         NeutralScore,
		Anxiety:         NeutralScore,
		Energy:          NeutralScore,
		Loneliness:      NeutralScore,
		OverallWellness: NeutralScore,
	}
}

// Clamped forces every score into 1..10; zero (unset) becomes neutral.
func (s Scores) Clamped() Scores {
	return Scores{
		Happiness:       clampScore(s.Happiness),
		Sadness:         clampScore(s.Sadness),
		Anxiety:         clampScore(s.Anxiety),
		Energy:          clampScore(s.Energy),
		Loneliness:      clampScore(s.Loneliness),
		OverallWellness: clampScore(s.OverallWellness),
	}
}

func clampScore(v int) int {
	switch {
	case v == 0:
		return NeutralScore
	case v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	}
	return v
}

type MoodPoint struct {
	Date  time.Time `json:"date"`
	Emoji string    `json:"emoji"`
	Rate  int       `json:"rate"`
}

type JournalPoint struct {
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary,omitempty"`
	MoodEmoji string    `json:"mood_emoji,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

type SessionPoint struct {
	Date       time.Time `json:"date"`
	Input      string    `json:"input"`
	Status     string    `json:"status"`
	CardTitles []string  `json:"card_titles,omitempty"`
}

// DailyPoint is a stored daily summary as input to a period analysis.
type DailyPoint struct {
	Date    time.Time `json:"date"`
	Scores  Scores    `json:"scores"`
	Summary string    `json:"summary"`
}

// WeeklyPoint is a stored weekly summary as input to a month analysis.
type WeeklyPoint struct {
	Start         time.Time `json:"start"`
	Scores        Scores    `json:"scores"`
	ShortSummary  string    `json:"short_summary"`
	DominantTheme string    `json:"dominant_theme"`
}

type DayInput struct {
	Date     time.Time      `json:"date"`
	Mood     *MoodPoint     `json:"mood,omitempty"`
	Journals []JournalPoint `json:"journals"`
	Sessions []SessionPoint `json:"sessions"`
}

type DayResult struct {
	Scores          Scores   `json:"scores"`
	ShortSummary    string   `json:"short_summary"`
	DetailedSummary string   `json:"detailed_summary"`
	DominantTheme   string   `json:"dominant_theme"`
	Insights        []string `json:"insights"`
	Achievements    []string `json:"achievements"`
	Challenges      []string `json:"challenges"`
}

type WeekInput struct {
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Dailies  []DailyPoint   `json:"daily_summaries"`
	Moods    []MoodPoint    `json:"moods"`
	Journals []JournalPoint `json:"journals"`
	Sessions []SessionPoint `json:"sessions"`
}

type MonthInput struct {
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Weeklies []WeeklyPoint  `json:"weekly_summaries"`
	Dailies  []DailyPoint   `json:"daily_summaries"`
	Moods    []MoodPoint    `json:"moods"`
	Journals []JournalPoint `json:"journals"`
	Sessions []SessionPoint `json:"sessions"`
}

type PeriodResult struct {
	Scores          Scores   `json:"scores"`
	ShortSummary    string   `json:"short_summary"`
	DetailedSummary string   `json:"detailed_summary"`
	DominantTheme   string   `json:"dominant_theme"`
	Insights        []string `json:"insights"`
	Achievements    []string `json:"achievements"`
	Challenges      []string `json:"challenges"`
	Recommendations []string `json:"recommendations"`
}

type JournalAnalysis struct {
	Summary   string   `json:"summary"`
	MoodEmoji string   `json:"mood_emoji"`
	Tags      []string `json:"tags"`
}

type QuizQuestion struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	ScaleMin    int      `json:"min,omitempty"`
	ScaleMax    int      `json:"max,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

type QuizAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Card struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	CardType string `json:"card_type"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatInput is one coaching turn about a session that already has cards.
type ChatInput struct {
	Situation string     `json:"situation"`
	Cards     []Card     `json:"cards"`
	History   []ChatTurn `json:"history"`
	Message   string     `json:"message"`
}

// SummaryAnalyzer is what the rollup engine depends on.
type SummaryAnalyzer interface {
	AnalyzeDay(ctx context.Context, in DayInput) (DayResult, error)
	AnalyzeWeek(ctx context.Context, in WeekInput) (PeriodResult, error)
	AnalyzeMonth(ctx context.Context, in MonthInput) (PeriodResult, error)
}

type Analyzer interface {
	SummaryAnalyzer
	AnalyzeJournal(ctx context.Context, title, content string) (JournalAnalysis, error)
	GenerateQuiz(ctx context.Context, userInput string) ([]QuizQuestion, error)
	GenerateCards(ctx context.Context, userInput string, answers []QuizAnswer) ([]Card, error)
	Chat(ctx context.Context, in ChatInput) (string, error)
}

func NeutralDay() DayResult {
	return DayResult{
		Scores:          NeutralScores(),
		ShortSummary:    "A day of activity was recorded.",
		DetailedSummary: "Activity was recorded for this day, but no detailed analysis is available.",
		DominantTheme:   "reflection",
		Insights:        []string{"Keep tracking your mood and reflections to see patterns over time."},
		Achievements:    []string{},
		Challenges:      []string{},
	}
}

func NeutralPeriod(kind string) PeriodResult {
	return PeriodResult{
		Scores:          NeutralScores(),
		ShortSummary:    "Your " + kind + " summary is ready.",
		DetailedSummary: "Activity was recorded during this " + kind + ", but no detailed analysis is available.",
		DominantTheme:   "consistency",
		Insights:        []string{"Regular check-ins make trends easier to spot."},
		Achievements:    []string{"You showed up for yourself this " + kind + "."},
		Challenges:      []string{},
		Recommendations: []string{"Keep journaling a few minutes each day."},
	}
}

// FallbackJournal derives journal metadata without a model.
func FallbackJournal(content string) JournalAnalysis {
	summary := content
	if r := []rune(content); len(r) > 80 {
		summary = string(r[:80]) + "..."
	}
	return JournalAnalysis{Summary: summary, MoodEmoji: "😐", Tags: []string{"personal"}}
}

func (r DayResult) normalized() DayResult {
	r.Scores = r.Scores.Clamped()
	r.ShortSummary = strings.TrimSpace(r.ShortSummary)
	r.DetailedSummary = strings.TrimSpace(r.DetailedSummary)
	r.DominantTheme = strings.TrimSpace(r.DominantTheme)
	r.Insights = capList(r.Insights)
	r.Achievements = capList(r.Achievements)
	r.Challenges = capList(r.Challenges)
	return r
}

func (r PeriodResult) normalized() PeriodResult {
	r.Scores = r.Scores.Clamped()
	r.ShortSummary = strings.TrimSpace(r.ShortSummary)
	r.DetailedSummary = strings.TrimSpace(r.DetailedSummary)
	r.DominantTheme = strings.TrimSpace(r.DominantTheme)
	r.Insights = capList(r.Insights)
	r.Achievements = capList(r.Achievements)
	r.Challenges = capList(r.Challenges)
	r.Recommendations = capList(r.Recommendations)
	return r
}

func (j JournalAnalysis) normalized(content string) JournalAnalysis {
	fb := FallbackJournal(content)
	j.Summary = strings.TrimSpace(j.Summary)
	if r := []rune(j.Summary); len(r) > 100 {
		j.Summary = string(r[:100])
	}
	if j.Summary == "" {
		j.Summary = fb.Summary
	}
	if strings.TrimSpace(j.MoodEmoji) == "" {
		j.MoodEmoji = fb.MoodEmoji
	}
	tags := make([]string, 0, 4)
	for _, t := range j.Tags {
		if t = strings.TrimSpace(t); t != "" && len(tags) < 4 {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = fb.Tags
	}
	j.Tags = tags
	return j
}

func capList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
