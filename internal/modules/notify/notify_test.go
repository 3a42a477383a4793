package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/clients/redis"
	"github.com/yungbote/perspective-backend/internal/data/repos"
	"github.com/yungbote/perspective-backend/internal/data/repos/testutil"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
)

type fixture struct {
	db         *gorm.DB
	fanout     *Fanout
	milestones *MilestoneEvaluator
	source     rollup.ActivitySource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	notes := repos.NewNotificationRepo(db, log)
	moods := repos.NewMoodRepo(db, log)
	journals := repos.NewJournalRepo(db, log)
	sessions := repos.NewSessionRepo(db, log)
	fanout := NewFanout(notes, log, nil)
	return &fixture{
		db:         db,
		fanout:     fanout,
		milestones: NewMilestoneEvaluator(repos.NewUserRepo(db, log), moods, journals, sessions, notes, fanout, log),
		source:     rollup.NewActivitySource(moods, journals, sessions, repos.NewSummaryRepo(db, log)),
	}
}

func notificationsTitled(t *testing.T, db *gorm.DB, userID uuid.UUID, title string) []types.Notification {
	t.Helper()
	var out []types.Notification
	require.NoError(t, db.Where("user_id = ? AND title = ?", userID, title).Find(&out).Error)
	return out
}

func TestNotifyImmediateAndScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "notify")

	now, err := f.fanout.Notify(ctx, u.ID, "Hello", "World", types.NotificationTypeAchievement, nil)
	require.NoError(t, err)
	require.NotNil(t, now.SentAt)
	require.Nil(t, now.ScheduledFor)

	later := time.Now().Add(time.Hour)
	pending, err := f.fanout.Notify(ctx, u.ID, "Later", "Soon", types.NotificationTypeReminder, &later)
	require.NoError(t, err)
	require.Nil(t, pending.SentAt)
	require.NotNil(t, pending.ScheduledFor)

	_, err = f.fanout.Notify(ctx, u.ID, "Bad", "Type", "carrier_pigeon", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestSweepDueDeliversOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "sweep")
	now := time.Now().UTC()

	due := now.Add(-time.Hour)
	n, err := f.fanout.Notify(ctx, u.ID, "Due", "Past due", types.NotificationTypeReminder, &due)
	require.NoError(t, err)
	future := now.Add(time.Hour)
	_, err = f.fanout.Notify(ctx, u.ID, "Future", "Not yet", types.NotificationTypeReminder, &future)
	require.NoError(t, err)

	swept, err := f.fanout.SweepDue(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	var got types.Notification
	require.NoError(t, f.db.First(&got, "id = ?", n.ID).Error)
	require.NotNil(t, got.SentAt)

	swept, err = f.fanout.SweepDue(ctx, now)
	require.NoError(t, err)
	require.Zero(t, swept)
}

func TestSetupRemindersSkipsPendingTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "reminders")
	now := time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

	n, err := f.fanout.SetupReminders(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	daily := notificationsTitled(t, f.db, u.ID, DailyReflectionTitle)
	require.Len(t, daily, 1)
	require.Equal(t, types.NotificationTypeDailyReflection, daily[0].Type)
	require.True(t, daily[0].ScheduledFor.Equal(time.Date(2026, time.October, 15, 20, 0, 0, 0, time.UTC)))

	weekly := notificationsTitled(t, f.db, u.ID, WeeklyCheckInTitle)
	require.Len(t, weekly, 1)
	require.True(t, weekly[0].ScheduledFor.Equal(time.Date(2026, time.October, 21, 19, 0, 0, 0, time.UTC)))

	n, err = f.fanout.SetupReminders(ctx, u.ID, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCreateMindfulnessTipAndTaskReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "tips")

	tip, err := f.fanout.CreateMindfulnessTip(ctx, u.ID, 6)
	require.NoError(t, err)
	require.Equal(t, Tips[1].Title, tip.Title)
	require.Equal(t, types.NotificationTypeTip, tip.Type)

	task, err := f.fanout.CreateTaskReminder(ctx, u.ID, "Drink water", nil)
	require.NoError(t, err)
	require.Equal(t, "Reminder: Drink water", task.Title)
	require.Equal(t, TaskReminderMessage, task.Message)

	_, err = f.fanout.CreateTaskReminder(ctx, u.ID, "", nil)
	require.Error(t, err)
}

func TestMilestoneCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "milestone")
	now := time.Now().UTC()
	testutil.SeedSession(t, ctx, f.db, u.ID, now, types.SessionStatusInput)

	created, err := f.milestones.Check(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	created, err = f.milestones.Check(ctx, u.ID, now)
	require.NoError(t, err)
	require.Zero(t, created)

	welcome := notificationsTitled(t, f.db, u.ID, "Welcome to Your Journey!")
	require.Len(t, welcome, 1)
	require.Equal(t, types.NotificationTypeMilestone, welcome[0].Type)
	require.NotNil(t, welcome[0].SentAt)
}

func TestMilestonesUseExactCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, f.db, "exact")
	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		testutil.SeedMood(t, ctx, f.db, u.ID, now.AddDate(0, 0, -i), "🙂", 6)
	}
	testutil.SeedJournal(t, ctx, f.db, u.ID, now, "One")
	testutil.SeedJournal(t, ctx, f.db, u.ID, now, "Two")
	require.NoError(t, f.db.Model(&types.User{}).Where("id = ?", u.ID).Update("current_streak", 31).Error)

	created, err := f.milestones.Check(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 2, created)
	require.Len(t, notificationsTitled(t, f.db, u.ID, "Week of Mood Tracking!"), 1)
	require.Len(t, notificationsTitled(t, f.db, u.ID, "30-Day Streak!"), 1)
	require.Empty(t, notificationsTitled(t, f.db, u.ID, "First Journal Entry!"))
}

func TestMilestoneCheckUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.milestones.Check(context.Background(), uuid.New(), time.Now())
	require.Error(t, err)
}

type fakeWeekly struct {
	calls  int
	result rollup.BatchResult
	err    error
}

func (w *fakeWeekly) RunIfPending(_ context.Context, kind periods.Kind, _ time.Time) (rollup.BatchResult, error) {
	w.calls++
	if kind != periods.Week {
		return rollup.BatchResult{}, errors.New("unexpected kind")
	}
	return w.result, w.err
}

func TestProcessBatchOnSunday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sunday := time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)
	u := testutil.SeedUser(t, ctx, f.db, "active")
	testutil.SeedMood(t, ctx, f.db, u.ID, sunday.AddDate(0, 0, -2), "🙂", 6)
	testutil.SeedUser(t, ctx, f.db, "inactive")

	due := sunday.Add(-time.Hour)
	_, err := f.fanout.Notify(ctx, u.ID, "Due", "Now", types.NotificationTypeReminder, &due)
	require.NoError(t, err)

	weekly := &fakeWeekly{result: rollup.BatchResult{
		Processed:    3,
		Created:      2,
		Errors:       1,
		ErrorDetails: []rollup.ErrorDetail{{UserID: "u-2", Error: "boom"}},
	}}
	p := NewProcessor(f.fanout, weekly, f.source, testutil.Logger(t))
	res, err := p.ProcessBatch(ctx, sunday)
	require.NoError(t, err)
	require.Equal(t, 1, weekly.calls)
	require.Equal(t, 1, res.Details.ScheduledProcessed)
	require.Equal(t, 2, res.Details.WeeklySummariesGenerated)
	require.Equal(t, 2, res.Details.WeeklySummaryNotifications)
	require.Equal(t, 2, res.Details.RemindersSetup)
	require.Equal(t, 4, res.Created)
	require.Equal(t, 1, res.Errors)
	require.Equal(t, "weekly_summary", res.ErrorDetails[0].Action)
}

func TestProcessBatchWeekdaySkipsWeekly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	weekly := &fakeWeekly{}
	p := NewProcessor(f.fanout, weekly, f.source, testutil.Logger(t))

	res, err := p.ProcessBatch(ctx, time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Zero(t, weekly.calls)
	require.Equal(t, ProcessResult{ErrorDetails: []ProcessError{}}, res)
}

func TestProcessBatchRecordsWeeklyFailure(t *testing.T) {
	f := newFixture(t)
	weekly := &fakeWeekly{err: errors.New("list failed")}
	p := NewProcessor(f.fanout, weekly, f.source, testutil.Logger(t))

	res, err := p.ProcessBatch(context.Background(), time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, res.Errors)
	require.Equal(t, "weekly_summaries", res.ErrorDetails[0].Action)
}

type countingSource struct {
	rollup.ActivitySource
	listed int
}

func (c *countingSource) ListActiveUsers(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	c.listed++
	return c.ActivitySource.ListActiveUsers(ctx, since)
}

func TestProcessBatchSkipsFinishedWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	sunday := time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC)
	u := testutil.SeedUser(t, ctx, f.db, "weekly-once")
	// One mood inside the summarized week (Oct 4..10), one keeping the user active.
	testutil.SeedMood(t, ctx, f.db, u.ID, time.Date(2026, time.October, 6, 9, 0, 0, 0, time.UTC), "🙂", 7)
	testutil.SeedMood(t, ctx, f.db, u.ID, sunday.AddDate(0, 0, -2), "😌", 6)

	src := &countingSource{ActivitySource: f.source}
	engine := rollup.NewEngine(src, repos.NewSummaryRepo(f.db, log), analyzer.NewStub(), f.fanout, log)
	batch := rollup.NewBatchRunner(engine, src, redis.LocalLocker(), rollup.BatchConfig{}, log, nil)
	p := NewProcessor(f.fanout, batch, f.source, log)

	first, err := p.ProcessBatch(ctx, sunday)
	require.NoError(t, err)
	require.Equal(t, 1, first.Details.WeeklySummariesGenerated)
	require.Equal(t, 1, src.listed)

	second, err := p.ProcessBatch(ctx, sunday.Add(15*time.Minute))
	require.NoError(t, err)
	require.Zero(t, second.Details.WeeklySummariesGenerated)
	require.Equal(t, 1, src.listed, "finished week must not be re-entered")
}
