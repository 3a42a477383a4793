package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	"github.com/yungbote/perspective-backend/internal/data/repos/testutil"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/domain/perspective"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/ctxutil"
)

var fixedNow = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	db            *gorm.DB
	users         repos.UserRepo
	notes         repos.NotificationRepo
	moods         MoodService
	journals      JournalService
	perspective   *perspectiveService
	notifications NotificationService
	milestones    *notify.MilestoneEvaluator
	dashboard     DashboardService
	profile       ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	users := repos.NewUserRepo(db, log)
	moods := repos.NewMoodRepo(db, log)
	journals := repos.NewJournalRepo(db, log)
	sessions := repos.NewSessionRepo(db, log)
	notes := repos.NewNotificationRepo(db, log)
	summaries := repos.NewSummaryRepo(db, log)
	fanout := notify.NewFanout(notes, log, nil)
	milestones := notify.NewMilestoneEvaluator(users, moods, journals, sessions, notes, fanout, log)
	stub := analyzer.NewStub()

	return &fixture{
		db:            db,
		users:         users,
		notes:         notes,
		moods:         NewMoodService(log, moods, milestones, fixedClock),
		journals:      NewJournalService(db, log, journals, users, stub, milestones, fixedClock),
		perspective:   NewPerspectiveService(db, log, sessions, journals, users, stub, milestones, fixedClock).(*perspectiveService),
		notifications: NewNotificationService(log, notes, fanout, milestones, fixedClock),
		milestones:    milestones,
		dashboard:     NewDashboardService(log, users, moods, journals, sessions, summaries, notes, fixedClock),
		profile:       NewProfileService(db, log, users),
	}
}

func (f *fixture) userCtx(t *testing.T, externalID string) (context.Context, *types.User) {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), f.db, externalID)
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Subject: externalID}), u
}

func (f *fixture) reloadUser(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	u, err := f.users.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func intPtr(v int) *int { return &v }

func TestRequireUser(t *testing.T) {
	_, err := requireUser(context.Background())
	require.True(t, apierr.IsCode(err, apierr.CodeUnauthorized))
}

func TestAuthenticate(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	users := repos.NewUserRepo(db, log)
	svc := NewIdentityService(log, users, IdentityConfig{Secret: "s3cret", Issuer: "https://id.example"})

	sign := func(claims jwt.MapClaims, secret string) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}
	valid := jwt.MapClaims{
		"sub":        "user_abc",
		"iss":        "https://id.example",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"email":      "Ada@Example.com",
		"given_name": "Ada",
	}

	ctx, err := svc.Authenticate(context.Background(), sign(valid, "s3cret"))
	require.NoError(t, err)
	id := ctxutil.UserID(ctx)
	require.NotEqual(t, uuid.Nil, id)

	me, err := svc.GetMe(ctx)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", me.Email)
	require.Equal(t, "Ada", me.FirstName)

	// Same subject maps to the same local user.
	ctx2, err := svc.Authenticate(context.Background(), sign(valid, "s3cret"))
	require.NoError(t, err)
	require.Equal(t, id, ctxutil.UserID(ctx2))

	expired := jwt.MapClaims{"sub": "user_abc", "iss": "https://id.example", "exp": time.Now().Add(-time.Hour).Unix()}
	cases := map[string]string{
		"bad signature": sign(valid, "other"),
		"expired":       sign(expired, "s3cret"),
		"wrong issuer":  sign(jwt.MapClaims{"sub": "x", "iss": "evil", "exp": time.Now().Add(time.Hour).Unix()}, "s3cret"),
		"no subject":    sign(jwt.MapClaims{"iss": "https://id.example", "exp": time.Now().Add(time.Hour).Unix()}, "s3cret"),
		"empty":         "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tok)
			require.True(t, apierr.IsCode(err, apierr.CodeUnauthorized), "got %v", err)
		})
	}

	unconfigured := NewIdentityService(log, users, IdentityConfig{})
	_, err = unconfigured.Authenticate(context.Background(), sign(valid, "s3cret"))
	require.True(t, apierr.IsCode(err, apierr.CodeUnauthorized))
}

func TestMoodUpsertOnePerDay(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "mood")

	first, created, err := f.moods.Upsert(ctx, MoodInput{Emoji: "😊", Rate: intPtr(7)})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.moods.Upsert(ctx, MoodInput{Emoji: "😔", Rate: intPtr(3)})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(1), count(t, f.db, &types.MoodEntry{}, "user_id = ?", u.ID))

	today, err := f.moods.Today(ctx)
	require.NoError(t, err)
	require.Equal(t, "😔", today.MoodEmoji)
	require.Equal(t, 3, today.MoodRate)

	defaulted, _, err := f.moods.Upsert(ctx, MoodInput{Emoji: "🙂", Date: testutil.PtrTime(fixedNow.AddDate(0, 0, -2))})
	require.NoError(t, err)
	require.Equal(t, 5, defaulted.MoodRate)
}

func TestMoodUpsertValidation(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.userCtx(t, "mood-invalid")

	_, _, err := f.moods.Upsert(ctx, MoodInput{Emoji: "", Rate: intPtr(5)})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, _, err = f.moods.Upsert(ctx, MoodInput{Emoji: "😊", Rate: intPtr(11)})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, _, err = f.moods.Upsert(ctx, MoodInput{Emoji: "😊", Rate: intPtr(0)})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestMoodTrendsFillsGaps(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "trends")
	testutil.SeedMood(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, 0, -1), "😊", 8)
	testutil.SeedMood(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, 0, -5), "😔", 2)

	points, err := f.moods.Trends(ctx, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)
	require.Equal(t, "2026-10-08", points[0].Date)
	require.Equal(t, "2026-10-14", points[6].Date)
	require.Nil(t, points[6].MoodRate)
	require.Equal(t, 8, *points[5].MoodRate)
	require.Equal(t, 2, *points[1].MoodRate)
	require.Nil(t, points[0].MoodRate)
}

func TestJournalCreateAwardsPointsAndStreak(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "journal")
	testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, 0, -1), "Yesterday")

	content := strings.Repeat("a", 125)
	entry, err := f.journals.Create(ctx, JournalInput{Title: "Today", Content: content})
	require.NoError(t, err)
	require.Equal(t, 12, entry.PointsEarned)
	require.NotEmpty(t, entry.Summary)
	require.NotEmpty(t, entry.Tags)

	got := f.reloadUser(t, u.ID)
	require.Equal(t, 12, got.TotalPoints)
	require.Equal(t, 2, got.CurrentStreak)
	require.Equal(t, 2, got.LongestStreak)

	long, err := f.journals.Create(ctx, JournalInput{Title: "Long", Content: strings.Repeat("b", 5000), MoodEmoji: "🤩", Tags: []string{" Work ", "work", "Family"}})
	require.NoError(t, err)
	require.Equal(t, 50, long.PointsEarned)
	require.Equal(t, "🤩", long.MoodEmoji)
	require.Equal(t, []string{"work", "family"}, []string(long.Tags))
	require.Equal(t, 62, f.reloadUser(t, u.ID).TotalPoints)
}

func TestJournalValidation(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.userCtx(t, "journal-invalid")

	_, err := f.journals.Create(ctx, JournalInput{Title: "", Content: "x"})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.journals.Create(ctx, JournalInput{Title: strings.Repeat("t", 201), Content: "x"})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.journals.Create(ctx, JournalInput{Title: "ok", Content: strings.Repeat("c", 5001)})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestJournalOwnershipAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "owner")
	otherCtx, _ := f.userCtx(t, "intruder")
	for i := 0; i < 3; i++ {
		testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow.Add(-time.Duration(i)*time.Hour), "Entry")
	}

	page, err := f.journals.List(ctx, JournalListQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	require.Equal(t, int64(3), page.Pagination.Total)
	require.Equal(t, 2, page.Pagination.TotalPages)
	require.True(t, page.Pagination.HasMore)

	page, err = f.journals.List(ctx, JournalListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.False(t, page.Pagination.HasMore)

	id := page.Entries[0].ID
	_, err = f.journals.Get(otherCtx, id)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
	title := "hijack"
	_, err = f.journals.Update(otherCtx, id, JournalUpdate{Title: &title})
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
	require.True(t, apierr.IsCode(f.journals.Delete(otherCtx, id), apierr.CodeNotFound))

	title = "Renamed"
	updated, err := f.journals.Update(ctx, id, JournalUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.NoError(t, f.journals.Delete(ctx, id))
}

func TestJournalStats(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "stats")
	// fixedNow is a Wednesday; the week started on Sunday the 11th.
	testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow, "Today")
	testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, 0, -1), "Yesterday")
	testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, 0, -5), "Last week")
	testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow.AddDate(0, -1, 0), "Last month")

	stats, err := f.journals.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.TotalEntries)
	require.Equal(t, int64(2), stats.WeeklyEntries)
	require.Equal(t, int64(3), stats.MonthlyEntries)
	require.Equal(t, 2, stats.CurrentStreak)
}

func TestCurrentStreak(t *testing.T) {
	day := func(offset int) time.Time { return fixedNow.AddDate(0, 0, offset) }
	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"none", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"ends yesterday", []time.Time{day(-1), day(-2)}, 2},
		{"gap breaks", []time.Time{day(0), day(-2)}, 1},
		{"stale", []time.Time{day(-2), day(-3)}, 0},
		{"duplicates", []time.Time{day(0), day(0), day(-1)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CurrentStreak(tc.dates, fixedNow))
		})
	}
}

func completedSession(t *testing.T, f *fixture, ctx context.Context) *types.PerspectiveSession {
	t.Helper()
	s, err := f.perspective.CreateSession(ctx, "My manager criticised my report in front of the team.")
	require.NoError(t, err)
	require.Equal(t, types.SessionStatusInput, s.Status)

	s, err = f.perspective.GenerateQuiz(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, types.SessionStatusUnderstanding, s.Status)
	require.Len(t, s.Quizzes, 4)

	answers := map[uuid.UUID]string{}
	for _, q := range s.Quizzes {
		answers[q.ID] = "answer to " + q.QuestionType
	}
	n, err := f.perspective.SubmitAnswers(ctx, s.ID, answers)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	s, err = f.perspective.GenerateCards(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, types.SessionStatusCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	require.Len(t, s.Cards, 3)
	return s
}

func TestPerspectiveFlowAndStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "flow")
	s := completedSession(t, f, ctx)

	got := f.reloadUser(t, u.ID)
	require.Equal(t, 1, got.Sessions)
	require.Equal(t, 50, got.TotalPoints)

	_, err := f.perspective.GenerateQuiz(ctx, s.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.perspective.GenerateCards(ctx, s.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.perspective.SubmitAnswers(ctx, s.ID, map[uuid.UUID]string{s.Quizzes[0].ID: "late"})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	history, err := f.perspective.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(3), history[0].CardCount)
}

func answeredSession(t *testing.T, f *fixture, ctx context.Context) *types.PerspectiveSession {
	t.Helper()
	s, err := f.perspective.CreateSession(ctx, "I missed a deadline I promised my team.")
	require.NoError(t, err)
	s, err = f.perspective.GenerateQuiz(ctx, s.ID)
	require.NoError(t, err)
	answers := map[uuid.UUID]string{}
	for _, q := range s.Quizzes {
		answers[q.ID] = "answer"
	}
	_, err = f.perspective.SubmitAnswers(ctx, s.ID, answers)
	require.NoError(t, err)
	return s
}

func TestCompleteCreditsSessionOnce(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "complete-once")
	s := answeredSession(t, f, ctx)
	cards := func() []*types.PerspectiveCard {
		return []*types.PerspectiveCard{{Title: "Reframe", Content: "One late task is not a pattern.", CardType: perspective.CardInsight}}
	}

	// Both calls act on the same stale, not-yet-completed view of the session.
	require.NoError(t, f.perspective.complete(ctx, u.ID, s.ID, cards(), fixedNow))
	err := f.perspective.complete(ctx, u.ID, s.ID, cards(), fixedNow)
	require.True(t, apierr.IsCode(err, "already_completed"))

	got := f.reloadUser(t, u.ID)
	require.Equal(t, 1, got.Sessions)
	require.Equal(t, SessionCompletePoints, got.TotalPoints)
	require.Equal(t, int64(1), count(t, f.db, &types.PerspectiveCard{}, "session_id = ?", s.ID))
}

func TestGenerateCardsConcurrentCallsCreditOnce(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "complete-race")
	s := answeredSession(t, f, ctx)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.perspective.GenerateCards(ctx, s.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, apierr.IsCode(err, "already_completed") || apierr.IsCode(err, apierr.CodeValidation), "unexpected error: %v", err)
	}
	require.Equal(t, 1, succeeded)

	got := f.reloadUser(t, u.ID)
	require.Equal(t, 1, got.Sessions)
	require.Equal(t, SessionCompletePoints, got.TotalPoints)
	require.Equal(t, int64(cardCount), count(t, f.db, &types.PerspectiveCard{}, "session_id = ?", s.ID))
}

func TestSubmitAnswersRejectsForeignQuiz(t *testing.T) {
	f := newFixture(t)
	ctx, _ := f.userCtx(t, "foreign")
	s, err := f.perspective.CreateSession(ctx, "Something happened")
	require.NoError(t, err)
	_, err = f.perspective.GenerateQuiz(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.perspective.SubmitAnswers(ctx, s.ID, map[uuid.UUID]string{uuid.New(): "x"})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestSaveToJournalIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "atomic")
	s := completedSession(t, f, ctx)
	before := f.reloadUser(t, u.ID).TotalPoints

	f.perspective.afterJournalCreate = func(dbctx.Context, *types.JournalEntry) error {
		return errors.New("injected failure")
	}
	_, err := f.perspective.SaveToJournal(ctx, s.ID)
	require.Error(t, err)

	require.Zero(t, count(t, f.db, &types.JournalEntry{}, "user_id = ?", u.ID))
	require.Equal(t, before, f.reloadUser(t, u.ID).TotalPoints)
	reloaded, err := f.perspective.Get(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, reloaded.SavedToJournal)

	f.perspective.afterJournalCreate = nil
	res, err := f.perspective.SaveToJournal(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, SavePoints(res.Entry.Content), res.PointsEarned)
	require.Equal(t, "🧠", res.Entry.MoodEmoji)
	require.Equal(t, []string{"perspective", "growth", "mindset", "reflection"}, []string(res.Entry.Tags))
	require.True(t, strings.HasPrefix(res.Entry.Content, "**Original Situation:**\n"))
	require.Contains(t, res.Entry.Content, "### Room to Grow")
	require.Equal(t, before+res.PointsEarned, f.reloadUser(t, u.ID).TotalPoints)

	reloaded, err = f.perspective.Get(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, reloaded.SavedToJournal)
	require.Equal(t, res.JournalID, *reloaded.JournalID)

	_, err = f.perspective.SaveToJournal(ctx, s.ID)
	require.True(t, apierr.IsCode(err, "already_saved"))
	require.Equal(t, int64(1), count(t, f.db, &types.JournalEntry{}, "user_id = ?", u.ID))
}

func TestSavePoints(t *testing.T) {
	require.Equal(t, 25, SavePoints(""))
	require.Equal(t, 30, SavePoints(strings.Repeat("x", 100)))
	require.Equal(t, 50, SavePoints(strings.Repeat("x", 10000)))
}

func TestNotificationBulkAndOwnership(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "notes")
	otherCtx, _ := f.userCtx(t, "other-notes")

	for i := 0; i < 3; i++ {
		_, err := f.notifications.Generate(ctx, GenerateRequest{Action: GenerateCustom, Title: "Hi", Message: "There", Type: types.NotificationTypeAchievement})
		require.NoError(t, err)
	}
	page, err := f.notifications.List(ctx, 2, 0, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	require.Equal(t, int64(3), page.TotalCount)
	require.True(t, page.HasMore)

	_, err = f.notifications.SetRead(otherCtx, page.Notifications[0].ID, true)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
	require.True(t, apierr.IsCode(f.notifications.Delete(otherCtx, page.Notifications[0].ID), apierr.CodeNotFound))

	n, err := f.notifications.SetRead(ctx, page.Notifications[0].ID, true)
	require.NoError(t, err)
	require.True(t, n.IsRead)

	affected, err := f.notifications.Bulk(ctx, BulkMarkAllRead, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	stats, err := f.notifications.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Zero(t, stats.Unread)

	affected, err = f.notifications.Bulk(ctx, BulkDeleteAll, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
	require.Zero(t, count(t, f.db, &types.Notification{}, "user_id = ?", u.ID))

	_, err = f.notifications.Bulk(ctx, "explode", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestNotificationGenerateActions(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "generate")
	testutil.SeedSession(t, context.Background(), f.db, u.ID, fixedNow, types.SessionStatusInput)

	res, err := f.notifications.Generate(ctx, GenerateRequest{Action: GenerateSessionCompleted})
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)

	res, err = f.notifications.Generate(ctx, GenerateRequest{Action: GenerateDailyReminder})
	require.NoError(t, err)
	require.Equal(t, types.NotificationTypeDailyReflection, res.Notification.Type)
	require.Nil(t, res.Notification.SentAt)

	res, err = f.notifications.Generate(ctx, GenerateRequest{Action: GenerateMindfulnessTip})
	require.NoError(t, err)
	require.Equal(t, types.NotificationTypeTip, res.Notification.Type)

	res, err = f.notifications.Setup(ctx, SetupReminders)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created) // the daily reminder is already pending

	_, err = f.notifications.Generate(ctx, GenerateRequest{Action: "nope"})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.notifications.Setup(ctx, "nope")
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

type flakyNotes struct {
	repos.NotificationRepo
	calls int
}

func (r *flakyNotes) StatsByTypeAndRead(dbctx.Context, uuid.UUID) ([]repos.NotificationTypeReadCount, error) {
	r.calls++
	return nil, dberr.ErrTransient
}

func TestNotificationStatsRetriesTransientErrors(t *testing.T) {
	log := testutil.Logger(t)
	notes := &flakyNotes{}
	svc := NewNotificationService(log, notes, nil, nil, fixedClock).(*notificationService)
	svc.retry.Delay = time.Millisecond

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: uuid.New()})
	_, err := svc.Stats(ctx)
	require.True(t, apierr.IsCode(err, apierr.CodeStoreUnavailable))
	require.Equal(t, 3, notes.calls)
}

// flakyJournals fails the first call of each CRUD method with a transient error.
type flakyJournals struct {
	repos.JournalRepo
	failed map[string]bool
}

func (r *flakyJournals) trip(op string) error {
	if r.failed[op] {
		return nil
	}
	r.failed[op] = true
	return dberr.ErrTransient
}

func (r *flakyJournals) List(dbc dbctx.Context, userID uuid.UUID, filter repos.JournalFilter) ([]*types.JournalEntry, int64, error) {
	if err := r.trip("list"); err != nil {
		return nil, 0, err
	}
	return r.JournalRepo.List(dbc, userID, filter)
}

func (r *flakyJournals) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.JournalEntry, error) {
	if err := r.trip("get"); err != nil {
		return nil, err
	}
	return r.JournalRepo.GetByIDForUser(dbc, userID, id)
}

func (r *flakyJournals) UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]any) (bool, error) {
	if err := r.trip("update"); err != nil {
		return false, err
	}
	return r.JournalRepo.UpdateFields(dbc, userID, id, updates)
}

func (r *flakyJournals) Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	if err := r.trip("delete"); err != nil {
		return false, err
	}
	return r.JournalRepo.Delete(dbc, userID, id)
}

func TestJournalCRUDRetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	ctx, u := f.userCtx(t, "flaky-journal")
	entry := testutil.SeedJournal(t, context.Background(), f.db, u.ID, fixedNow, "Rainy day")

	log := testutil.Logger(t)
	flaky := &flakyJournals{JournalRepo: repos.NewJournalRepo(f.db, log), failed: map[string]bool{}}
	svc := NewJournalService(f.db, log, flaky, f.users, analyzer.NewStub(), nil, fixedClock).(*journalService)
	svc.retry.Delay = time.Millisecond

	page, err := svc.List(ctx, JournalListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, "Rainy day", got.Title)

	title := "Sunny after all"
	updated, err := svc.Update(ctx, entry.ID, JournalUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)

	require.NoError(t, svc.Delete(ctx, entry.ID))
	require.Equal(t, map[string]bool{"list": true, "get": true, "update": true, "delete": true}, flaky.failed)
	require.Zero(t, count(t, f.db, &types.JournalEntry{}, "user_id = ?", u.ID))
}

type recordingChat struct {
	*analyzer.Stub
	inputs []analyzer.ChatInput
}

func (r *recordingChat) Chat(ctx context.Context, in analyzer.ChatInput) (string, error) {
	r.inputs = append(r.inputs, in)
	return r.Stub.Chat(ctx, in)
}

func TestChatStoresTurnsAndReplaysHistory(t *testing.T) {
	f := newFixture(t)
	rec := &recordingChat{Stub: analyzer.NewStub()}
	f.perspective.analyzer = rec
	ctx, u := f.userCtx(t, "chat")
	s := completedSession(t, f, ctx)

	first, err := f.perspective.Chat(ctx, s.ID, "  What should I try first?  ", nil)
	require.NoError(t, err)
	require.Contains(t, first.Message, "Coming back to")
	require.NotEqual(t, uuid.Nil, first.ConversationID)
	require.Equal(t, s.UserInput, rec.inputs[0].Situation)
	require.Len(t, rec.inputs[0].Cards, len(s.Cards))
	require.Empty(t, rec.inputs[0].History)
	require.Equal(t, "What should I try first?", rec.inputs[0].Message)

	// Without client history the stored conversation is replayed.
	_, err = f.perspective.Chat(ctx, s.ID, "And after that?", nil)
	require.NoError(t, err)
	require.Equal(t, []analyzer.ChatTurn{
		{Role: analyzer.ChatRoleUser, Content: "What should I try first?"},
		{Role: analyzer.ChatRoleAssistant, Content: first.Message},
	}, rec.inputs[1].History)

	_, err = f.perspective.Chat(ctx, s.ID, "Thanks", []analyzer.ChatTurn{
		{Role: "model", Content: "earlier reply"},
		{Role: "user", Content: "   "},
		{Role: "system", Content: "ignored"},
	})
	require.NoError(t, err)
	require.Equal(t, []analyzer.ChatTurn{{Role: analyzer.ChatRoleAssistant, Content: "earlier reply"}}, rec.inputs[2].History)
	require.Equal(t, int64(3), count(t, f.db, &types.Conversation{}, "user_id = ? AND session_id = ?", u.ID, s.ID))

	_, err = f.perspective.Chat(ctx, s.ID, "   ", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
	_, err = f.perspective.Chat(ctx, s.ID, strings.Repeat("x", maxChatMessage+1), nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	other, _ := f.userCtx(t, "chat-other")
	_, err = f.perspective.Chat(other, s.ID, "hello", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
	require.Len(t, rec.inputs, 3)
}
