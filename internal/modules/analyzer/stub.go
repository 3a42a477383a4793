package analyzer

import (
	"context"
	"fmt"
	"strings"
)

// Stub is a deterministic Analyzer used in tests and when no model is configured.
// Scores follow the mood rates it is given.
type Stub struct{}

func NewStub() *Stub { return &Stub{} }

func scoresFromRates(rates []int) Scores {
	if len(rates) == 0 {
		return NeutralScores()
	}
	sum := 0
	for _, r := range rates {
		sum += r
	}
	avg := sum / len(rates)
	return Scores{
		Happiness:       avg,
		Sadness:         11 - avg,
		Anxiety:         NeutralScore,
		Energy:          avg,
		Loneliness:      NeutralScore,
		OverallWellness: avg,
	}.Clamped()
}

func (s Stub) AnalyzeDay(_ context.Context, in DayInput) (DayResult, error) {
	var rates []int
	if in.Mood != nil {
		rates = append(rates, in.Mood.Rate)
	}
	return DayResult{
		Scores:          scoresFromRates(rates),
		ShortSummary:    fmt.Sprintf("You logged %d journal entries and %d perspective sessions.", len(in.Journals), len(in.Sessions)),
		DetailedSummary: "Summary generated without a language model.",
		DominantTheme:   "reflection",
		Insights:        []string{"Consistency builds insight."},
		Achievements:    []string{},
		Challenges:      []string{},
	}.normalized(), nil
}

func (s Stub) AnalyzeWeek(_ context.Context, in WeekInput) (PeriodResult, error) {
	rates := make([]int, 0, len(in.Moods))
	for _, m := range in.Moods {
		rates = append(rates, m.Rate)
	}
	res := NeutralPeriod("week")
	res.Scores = scoresFromRates(rates)
	res.ShortSummary = fmt.Sprintf("This week you checked in %d times and wrote %d journal entries.", len(in.Moods), len(in.Journals))
	return res.normalized(), nil
}

func (s Stub) AnalyzeMonth(_ context.Context, in MonthInput) (PeriodResult, error) {
	rates := make([]int, 0, len(in.Moods))
	for _, m := range in.Moods {
		rates = append(rates, m.Rate)
	}
	res := NeutralPeriod("month")
	res.Scores = scoresFromRates(rates)
	res.ShortSummary = fmt.Sprintf("This month you completed %d weekly reviews and %d perspective sessions.", len(in.Weeklies), len(in.Sessions))
	return res.normalized(), nil
}

func (s Stub) AnalyzeJournal(_ context.Context, title, content string) (JournalAnalysis, error) {
	res := FallbackJournal(content)
	if t := strings.ToLower(strings.TrimSpace(title)); t != "" {
		res.Tags = append(res.Tags, strings.Fields(t)[0])
	}
	return res.normalized(content), nil
}

func (s Stub) GenerateQuiz(_ context.Context, userInput string) ([]QuizQuestion, error) {
	return []QuizQuestion{
		{Type: "text", Question: "What happened, in your own words?", Placeholder: "Describe the moment..."},
		{Type: "multiple_choice", Question: "Which feeling is strongest right now?", Options: []string{"Worried", "Frustrated", "Sad", "Unsure"}},
		{Type: "scale", Question: "How intense does this feel?", ScaleMin: 1, ScaleMax: 5},
		{Type: "emoji", Question: "Pick the emoji closest to how you feel.", Options: []string{"😞", "😤", "😊", "😌"}},
	}, nil
}

func (s Stub) GenerateCards(_ context.Context, userInput string, answers []QuizAnswer) ([]Card, error) {
	return []Card{
		{Title: "Room to Grow", Content: "This situation is a chance to learn something about yourself.", CardType: "growth"},
		{Title: "Go Easy on Yourself", Content: "Anyone in your place would find this hard.", CardType: "compassion"},
		{Title: "One Small Step", Content: "Pick one small action you can take today.", CardType: "action"},
	}, nil
}

func (s Stub) Chat(_ context.Context, in ChatInput) (string, error) {
	if len(in.Cards) == 0 {
		return "Thanks for sharing that. What feels most important to you right now?", nil
	}
	return fmt.Sprintf("Thanks for sharing that. Coming back to %q might help here: %s", in.Cards[0].Title, in.Cards[0].Content), nil
}
