package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/openai"
)

// OpenAIAnalyzer implements Analyzer with structured model output.
type OpenAIAnalyzer struct {
	client  openai.Client
	log     *logger.Logger
	catalog promptCatalog
}

func NewOpenAIAnalyzer(client openai.Client, baseLog *logger.Logger) (*OpenAIAnalyzer, error) {
	if client == nil {
		return nil, fmt.Errorf("openai client required")
	}
	cat, err := loadPromptCatalog(promptCatalogYAML)
	if err != nil {
		return nil, err
	}
	return &OpenAIAnalyzer{client: client, log: baseLog.With("component", "OpenAIAnalyzer"), catalog: cat}, nil
}

type summaryPayload struct {
	Scores
	ShortSummary    string   `json:"short_summary"`
	DetailedSummary string   `json:"detailed_summary"`
	DominantTheme   string   `json:"dominant_theme"`
	Insights        []string `json:"insights"`
	Achievements    []string `json:"achievements"`
	Challenges      []string `json:"challenges"`
	Recommendations []string `json:"recommendations"`
}

func (a *OpenAIAnalyzer) generate(ctx context.Context, name string, schema map[string]any, input any, out any) error {
	spec := a.catalog.Prompts[name]
	user, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s input: %w", name, err)
	}
	obj, err := a.client.GenerateJSON(ctx, spec.System, string(user), spec.SchemaName, schema)
	if err != nil {
		return fmt.Errorf("%s analysis: %w", name, err)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s output: %w", name, err)
	}
	return nil
}

func (a *OpenAIAnalyzer) AnalyzeDay(ctx context.Context, in DayInput) (DayResult, error) {
	var p summaryPayload
	if err := a.generate(ctx, promptDay, summarySchema(false), in, &p); err != nil {
		return DayResult{}, err
	}
	return DayResult{
		Scores:          p.Scores,
		ShortSummary:    p.ShortSummary,
		DetailedSummary: p.DetailedSummary,
		DominantTheme:   p.DominantTheme,
		Insights:        p.Insights,
		Achievements:    p.Achievements,
		Challenges:      p.Challenges,
	}.normalized(), nil
}

func (a *OpenAIAnalyzer) AnalyzeWeek(ctx context.Context, in WeekInput) (PeriodResult, error) {
	return a.analyzePeriod(ctx, promptWeek, in)
}

func (a *OpenAIAnalyzer) AnalyzeMonth(ctx context.Context, in MonthInput) (PeriodResult, error) {
	return a.analyzePeriod(ctx, promptMonth, in)
}

func (a *OpenAIAnalyzer) analyzePeriod(ctx context.Context, name string, in any) (PeriodResult, error) {
	var p summaryPayload
	if err := a.generate(ctx, name, summarySchema(true), in, &p); err != nil {
		return PeriodResult{}, err
	}
	return PeriodResult{
		Scores:          p.Scores,
		ShortSummary:    p.ShortSummary,
		DetailedSummary: p.DetailedSummary,
		DominantTheme:   p.DominantTheme,
		Insights:        p.Insights,
		Achievements:    p.Achievements,
		Challenges:      p.Challenges,
		Recommendations: p.Recommendations,
	}.normalized(), nil
}

func (a *OpenAIAnalyzer) AnalyzeJournal(ctx context.Context, title, content string) (JournalAnalysis, error) {
	var out JournalAnalysis
	in := map[string]string{"title": title, "content": content}
	if err := a.generate(ctx, promptJournal, journalSchema(), in, &out); err != nil {
		return JournalAnalysis{}, err
	}
	return out.normalized(content), nil
}

func (a *OpenAIAnalyzer) GenerateQuiz(ctx context.Context, userInput string) ([]QuizQuestion, error) {
	var out struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := a.generate(ctx, promptQuiz, quizSchema(), map[string]string{"situation": userInput}, &out); err != nil {
		return nil, err
	}
	qs := make([]QuizQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		if q.Type == "scale" && (q.ScaleMin <= 0 || q.ScaleMax <= q.ScaleMin) {
			q.ScaleMin, q.ScaleMax = 1, 5
		}
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("quiz generation returned no questions")
	}
	return qs, nil
}

func (a *OpenAIAnalyzer) GenerateCards(ctx context.Context, userInput string, answers []QuizAnswer) ([]Card, error) {
	var out struct {
		Cards []Card `json:"cards"`
	}
	in := map[string]any{"situation": userInput, "answers": answers}
	if err := a.generate(ctx, promptCards, cardsSchema(), in, &out); err != nil {
		return nil, err
	}
	cards := make([]Card, 0, 3)
	for _, c := range out.Cards {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Content) == "" {
			continue
		}
		if c.CardType == "" {
			c.CardType = "insight"
		}
		cards = append(cards, c)
		if len(cards) == 3 {
			break
		}
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("card generation returned no cards")
	}
	return cards, nil
}

func (a *OpenAIAnalyzer) Chat(ctx context.Context, in ChatInput) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	if err := a.generate(ctx, promptChat, chatSchema(), in, &out); err != nil {
		return "", err
	}
	reply := strings.TrimSpace(out.Reply)
	if reply == "" {
		return "", fmt.Errorf("chat returned an empty reply")
	}
	return reply, nil
}
