package analyzer

import (
	"context"
	"fmt"

	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// Fallback resolves every summary and journal analysis failure, panics included,
// to the neutral default. Quiz and card generation errors pass through.
type Fallback struct {
	inner   Analyzer
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewFallback(inner Analyzer, baseLog *logger.Logger, metrics *observability.Metrics) *Fallback {
	return &Fallback{inner: inner, log: baseLog.With("component", "AnalyzerFallback"), metrics: metrics}
}

func guard[T any](f *Fallback, kind string, neutral func() T, call func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("Analyzer panicked, using neutral result", "kind", kind, "panic", fmt.Sprint(r))
			f.metrics.IncAnalyzerFallback(kind)
			out = neutral()
		}
	}()
	res, err := call()
	if err != nil {
		f.log.Warn("Analyzer failed, using neutral result", "kind", kind, "error", err)
		f.metrics.IncAnalyzerFallback(kind)
		return neutral()
	}
	return res
}

func (f *Fallback) AnalyzeDay(ctx context.Context, in DayInput) (DayResult, error) {
	return guard(f, "day", NeutralDay, func() (DayResult, error) { return f.inner.AnalyzeDay(ctx, in) }), nil
}

func (f *Fallback) AnalyzeWeek(ctx context.Context, in WeekInput) (PeriodResult, error) {
	neutral := func() PeriodResult { return NeutralPeriod("week") }
	return guard(f, "week", neutral, func() (PeriodResult, error) { return f.inner.AnalyzeWeek(ctx, in) }), nil
}

func (f *Fallback) AnalyzeMonth(ctx context.Context, in MonthInput) (PeriodResult, error) {
	neutral := func() PeriodResult { return NeutralPeriod("month") }
	return guard(f, "month", neutral, func() (PeriodResult, error) { return f.inner.AnalyzeMonth(ctx, in) }), nil
}

func (f *Fallback) AnalyzeJournal(ctx context.Context, title, content string) (JournalAnalysis, error) {
	neutral := func() JournalAnalysis { return FallbackJournal(content) }
	return guard(f, "journal", neutral, func() (JournalAnalysis, error) { return f.inner.AnalyzeJournal(ctx, title, content) }), nil
}

func (f *Fallback) GenerateQuiz(ctx context.Context, userInput string) ([]QuizQuestion, error) {
	return f.inner.GenerateQuiz(ctx, userInput)
}

func (f *Fallback) GenerateCards(ctx context.Context, userInput string, answers []QuizAnswer) ([]Card, error) {
	return f.inner.GenerateCards(ctx, userInput, answers)
}

func (f *Fallback) Chat(ctx context.Context, in ChatInput) (string, error) {
	return f.inner.Chat(ctx, in)
}
