package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos/testutil"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
)

func TestNotificationRepoInbox(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewNotificationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "idp_notif")
	other := testutil.SeedUser(t, ctx, tx, "idp_notif_other")
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	sent := &types.Notification{UserID: u.ID, Title: "Tip", Message: "Breathe", Type: types.NotificationTypeTip, SentAt: testutil.PtrTime(now)}
	if err := repo.Create(dbc, sent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.SeedNotification(t, ctx, tx, &types.Notification{
		UserID: u.ID, Title: "Milestone", Message: "m", Type: types.NotificationTypeMilestone, SentAt: testutil.PtrTime(now),
	})
	testutil.SeedNotification(t, ctx, tx, &types.Notification{
		UserID: u.ID, Title: "Later", Message: "l", Type: types.NotificationTypeDailyReflection, ScheduledFor: testutil.PtrTime(now.Add(time.Hour)),
	})

	rows, total, err := repo.ListForUser(dbc, u.ID, ListFilter{})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("ListForUser: len=%d total=%d err=%v", len(rows), total, err)
	}

	got, err := repo.SetRead(dbc, u.ID, sent.ID, true)
	if err != nil || got == nil || !got.IsRead {
		t.Fatalf("SetRead: got=%+v err=%v", got, err)
	}
	foreign, err := repo.SetRead(dbc, other.ID, sent.ID, false)
	if err != nil || foreign != nil {
		t.Fatalf("SetRead (foreign): got=%+v err=%v", foreign, err)
	}

	_, total, err = repo.ListForUser(dbc, u.ID, ListFilter{UnreadOnly: true})
	if err != nil || total != 1 {
		t.Fatalf("ListForUser unread: total=%d err=%v", total, err)
	}

	stats, err := repo.StatsByTypeAndRead(dbc, u.ID)
	if err != nil || len(stats) != 2 {
		t.Fatalf("StatsByTypeAndRead: %+v err=%v", stats, err)
	}

	affected, err := repo.BulkSetRead(dbc, u.ID, nil, true)
	if err != nil || affected != 2 {
		t.Fatalf("BulkSetRead: affected=%d err=%v", affected, err)
	}
	affected, err = repo.BulkSetRead(dbc, u.ID, []uuid.UUID{sent.ID}, false)
	if err != nil || affected != 1 {
		t.Fatalf("BulkSetRead ids: affected=%d err=%v", affected, err)
	}

	ok, err := repo.Delete(dbc, other.ID, sent.ID)
	if err != nil || ok {
		t.Fatalf("Delete (foreign): ok=%v err=%v", ok, err)
	}
	ok, err = repo.Delete(dbc, u.ID, sent.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	affected, err = repo.BulkDelete(dbc, u.ID, nil)
	if err != nil || affected != 2 {
		t.Fatalf("BulkDelete: affected=%d err=%v", affected, err)
	}
}

func TestNotificationRepoSweepAndGuards(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewNotificationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, "idp_sweep")
	now := time.Now().UTC().Truncate(time.Second)

	due := testutil.SeedNotification(t, ctx, db, &types.Notification{
		UserID: u.ID, Title: "Daily Reflection Time", Message: "m", Type: types.NotificationTypeDailyReflection,
		ScheduledFor: testutil.PtrTime(now.Add(-time.Hour)),
	})
	testutil.SeedNotification(t, ctx, db, &types.Notification{
		UserID: u.ID, Title: "Weekly Check-in", Message: "m", Type: types.NotificationTypeCheckIn,
		ScheduledFor: testutil.PtrTime(now.Add(24 * time.Hour)),
	})

	pending, err := repo.HasPendingOfType(dbc, u.ID, types.NotificationTypeDailyReflection)
	if err != nil || !pending {
		t.Fatalf("HasPendingOfType: pending=%v err=%v", pending, err)
	}

	n, err := repo.MarkDueSent(dbc, now)
	if err != nil || n != 1 {
		t.Fatalf("MarkDueSent: n=%d err=%v", n, err)
	}
	n, err = repo.MarkDueSent(dbc, now)
	if err != nil || n != 0 {
		t.Fatalf("MarkDueSent (second): n=%d err=%v", n, err)
	}

	var reloaded types.Notification
	if err := db.Where("id = ?", due.ID).Take(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.SentAt == nil {
		t.Fatalf("expected sent_at to be stamped")
	}

	pending, err = repo.HasPendingOfType(dbc, u.ID, types.NotificationTypeDailyReflection)
	if err != nil || pending {
		t.Fatalf("HasPendingOfType after sweep: pending=%v err=%v", pending, err)
	}

	testutil.SeedNotification(t, ctx, db, &types.Notification{
		UserID: u.ID, Title: "Double Digits!", Message: "m", Type: types.NotificationTypeMilestone, SentAt: testutil.PtrTime(now),
	})
	exists, err := repo.ExistsWithTitleSince(dbc, u.ID, types.NotificationTypeMilestone, "Double Digits!", now.AddDate(0, 0, -7))
	if err != nil || !exists {
		t.Fatalf("ExistsWithTitleSince: exists=%v err=%v", exists, err)
	}
	exists, err = repo.ExistsWithTitleSince(dbc, u.ID, types.NotificationTypeMilestone, "30-Day Streak!", now.AddDate(0, 0, -7))
	if err != nil || exists {
		t.Fatalf("ExistsWithTitleSince (other title): exists=%v err=%v", exists, err)
	}
}
