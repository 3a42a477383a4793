package rollup

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
)

// Activity is the raw input of one user over one window.
type Activity struct {
	Moods    []*types.MoodEntry
	Journals []*types.JournalEntry
	Sessions []*types.PerspectiveSession
}

func (a Activity) Empty() bool {
	return len(a.Moods) == 0 && len(a.Journals) == 0 && len(a.Sessions) == 0
}

type ActivitySource interface {
	// FetchWindow returns the user's rows dated in [start, end), or [start, end] when
	// inclusiveEnd is set.
	FetchWindow(ctx context.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) (Activity, error)
	// ListActiveUsers returns users with any mood, journal or session dated at or after since.
	ListActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	DailySummaries(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailySummary, error)
	WeeklySummaries(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.WeeklySummary, error)
}

type storeActivitySource struct {
	moods     repos.MoodRepo
	journals  repos.JournalRepo
	sessions  repos.SessionRepo
	summaries repos.SummaryRepo
}

func NewActivitySource(moods repos.MoodRepo, journals repos.JournalRepo, sessions repos.SessionRepo, summaries repos.SummaryRepo) ActivitySource {
	return &storeActivitySource{moods: moods, journals: journals, sessions: sessions, summaries: summaries}
}

func (s *storeActivitySource) FetchWindow(ctx context.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) (Activity, error) {
	dbc := dbctx.Context{Ctx: ctx}
	moods, err := s.moods.ListRange(dbc, userID, start, end, inclusiveEnd)
	if err != nil {
		return Activity{}, err
	}
	journals, err := s.journals.ListRange(dbc, userID, start, end, inclusiveEnd)
	if err != nil {
		return Activity{}, err
	}
	sessions, err := s.sessions.ListRange(dbc, userID, start, end, inclusiveEnd)
	if err != nil {
		return Activity{}, err
	}
	return Activity{Moods: moods, Journals: journals, Sessions: sessions}, nil
}

func (s *storeActivitySource) ListActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	seen := map[uuid.UUID]struct{}{}
	for _, list := range []func(dbctx.Context, time.Time) ([]uuid.UUID, error){
		s.moods.ActiveUserIDsSince,
		s.journals.ActiveUserIDsSince,
		s.sessions.ActiveUserIDsSince,
	} {
		ids, err := list(dbc, since)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *storeActivitySource) DailySummaries(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailySummary, error) {
	return s.summaries.ListDailyRange(dbctx.Context{Ctx: ctx}, userID, start, end)
}

func (s *storeActivitySource) WeeklySummaries(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.WeeklySummary, error) {
	return s.summaries.ListWeeklyRange(dbctx.Context{Ctx: ctx}, userID, start, end)
}
