package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type fakeClient struct {
	obj     map[string]any
	err     error
	schemas []string
}

func (f *fakeClient) GenerateJSON(_ context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.schemas = append(f.schemas, schemaName)
	return f.obj, f.err
}

type panicAnalyzer struct{ Stub }

func (panicAnalyzer) AnalyzeDay(context.Context, DayInput) (DayResult, error) {
	panic("model exploded")
}

type failingAnalyzer struct{ Stub }

func (failingAnalyzer) AnalyzeWeek(context.Context, WeekInput) (PeriodResult, error) {
	return PeriodResult{}, errors.New("upstream 500")
}

func (failingAnalyzer) GenerateQuiz(context.Context, string) ([]QuizQuestion, error) {
	return nil, errors.New("quiz down")
}

func TestPromptCatalogLoads(t *testing.T) {
	cat, err := loadPromptCatalog(promptCatalogYAML)
	require.NoError(t, err)
	require.Equal(t, "day_summary", cat.Prompts[promptDay].SchemaName)

	_, err = loadPromptCatalog([]byte("version: 1\nprompts: {}\n"))
	require.Error(t, err)
}

func TestScoresClamped(t *testing.T) {
	got := Scores{Happiness: 14, Sadness: -2, Anxiety: 0, Energy: 7, Loneliness: 1, OverallWellness: 10}.Clamped()
	require.Equal(t, Scores{Happiness: 10, Sadness: 1, Anxiety: 5, Energy: 7, Loneliness: 1, OverallWellness: 10}, got)
}

func TestOpenAIAnalyzerNormalizesOutput(t *testing.T) {
	client := &fakeClient{obj: map[string]any{
		"happiness_score": 12, "sadness_score": 2, "anxiety_score": 3,
		"energy_score": 6, "loneliness_score": 4, "overall_wellness": 8,
		"short_summary": "  A bright day.  ", "detailed_summary": "d", "dominant_theme": "growth",
		"insights":     []any{"a", "b", "c", "d", "e", "f", "g"},
		"achievements": []any{"ran"}, "challenges": []any{},
	}}
	a, err := NewOpenAIAnalyzer(client, logger.Nop())
	require.NoError(t, err)

	res, err := a.AnalyzeDay(context.Background(), DayInput{})
	require.NoError(t, err)
	require.Equal(t, 10, res.Scores.Happiness)
	require.Equal(t, 8, res.Scores.OverallWellness)
	require.Equal(t, "A bright day.", res.ShortSummary)
	require.Len(t, res.Insights, 5)
	require.Equal(t, []string{"day_summary"}, client.schemas)
}

func TestOpenAIAnalyzerJournalTrims(t *testing.T) {
	client := &fakeClient{obj: map[string]any{
		"summary":    strings.Repeat("x", 140),
		"mood_emoji": "",
		"tags":       []any{"happy", "work", "friends", "coffee", "extra"},
	}}
	a, err := NewOpenAIAnalyzer(client, logger.Nop())
	require.NoError(t, err)

	res, err := a.AnalyzeJournal(context.Background(), "t", "content")
	require.NoError(t, err)
	require.Len(t, res.Summary, 100)
	require.Equal(t, "😐", res.MoodEmoji)
	require.Equal(t, []string{"happy", "work", "friends", "coffee"}, res.Tags)
}

func TestFallbackRecoversPanicsAndErrors(t *testing.T) {
	ctx := context.Background()

	day, err := NewFallback(panicAnalyzer{}, logger.Nop(), nil).AnalyzeDay(ctx, DayInput{})
	require.NoError(t, err)
	require.Equal(t, NeutralScores(), day.Scores)

	f := NewFallback(failingAnalyzer{}, logger.Nop(), nil)
	week, err := f.AnalyzeWeek(ctx, WeekInput{})
	require.NoError(t, err)
	require.Equal(t, NeutralPeriod("week"), week)

	_, err = f.GenerateQuiz(ctx, "situation")
	require.Error(t, err)
}

func TestFallbackJournal(t *testing.T) {
	long := strings.Repeat("a", 120)
	res := FallbackJournal(long)
	require.Equal(t, strings.Repeat("a", 80)+"...", res.Summary)
	require.Equal(t, []string{"personal"}, res.Tags)

	require.Equal(t, "short", FallbackJournal("short").Summary)
}

func TestStubIsDeterministic(t *testing.T) {
	s := NewStub()
	res, err := s.AnalyzeWeek(context.Background(), WeekInput{Moods: []MoodPoint{{Rate: 4}, {Rate: 6}, {Rate: 8}}})
	require.NoError(t, err)
	require.Equal(t, 6, res.Scores.OverallWellness)

	quiz, err := s.GenerateQuiz(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, quiz, 4)
	cards, err := s.GenerateCards(context.Background(), "x", nil)
	require.NoError(t, err)
	require.Len(t, cards, 3)
}

func TestOpenAIAnalyzerChat(t *testing.T) {
	client := &fakeClient{obj: map[string]any{"reply": "  Try one small step today.  "}}
	a, err := NewOpenAIAnalyzer(client, logger.Nop())
	require.NoError(t, err)

	reply, err := a.Chat(context.Background(), ChatInput{
		Situation: "work stress",
		Cards:     []Card{{Title: "One Small Step", Content: "c", CardType: "action"}},
		History:   []ChatTurn{{Role: ChatRoleUser, Content: "hi"}, {Role: ChatRoleAssistant, Content: "hello"}},
		Message:   "what now?",
	})
	require.NoError(t, err)
	require.Equal(t, "Try one small step today.", reply)
	require.Equal(t, []string{"perspective_chat"}, client.schemas)

	client.obj = map[string]any{"reply": "   "}
	_, err = a.Chat(context.Background(), ChatInput{Message: "again"})
	require.Error(t, err)
}

func TestStubChatMentionsFirstCard(t *testing.T) {
	reply, err := NewStub().Chat(context.Background(), ChatInput{
		Cards:   []Card{{Title: "Room to Grow", Content: "Learn from it."}},
		Message: "help",
	})
	require.NoError(t, err)
	require.Contains(t, reply, "Room to Grow")

	reply, err = NewStub().Chat(context.Background(), ChatInput{Message: "help"})
	require.NoError(t, err)
	require.NotEmpty(t, reply)
}
