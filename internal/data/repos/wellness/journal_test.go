package wellness

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos/testutil"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
)

func TestJournalRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewJournalRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "idp_journal")
	other := testutil.SeedUser(t, ctx, tx, "idp_journal_other")
	base := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

	created, err := repo.Create(dbc, []*types.JournalEntry{
		{UserID: u.ID, Title: "Morning pages", Content: "Slept well and ran", MoodEmoji: "😊", Tags: []string{"sleep", "run"}, PointsEarned: 15, Date: base},
		{UserID: u.ID, Title: "Rough meeting", Content: "Felt unheard", MoodEmoji: "😞", Tags: []string{"work"}, PointsEarned: 10, Date: base.AddDate(0, 0, 1)},
	})
	if err != nil || len(created) != 2 {
		t.Fatalf("Create: len=%d err=%v", len(created), err)
	}
	testutil.SeedJournal(t, ctx, tx, other.ID, base, "not mine")

	got, err := repo.GetByIDForUser(dbc, u.ID, created[0].ID)
	if err != nil || got == nil || got.Title != "Morning pages" {
		t.Fatalf("GetByIDForUser: got=%+v err=%v", got, err)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "run" {
		t.Fatalf("tags did not round-trip: %v", got.Tags)
	}
	foreign, err := repo.GetByIDForUser(dbc, other.ID, created[0].ID)
	if err != nil || foreign != nil {
		t.Fatalf("GetByIDForUser (foreign): got=%+v err=%v", foreign, err)
	}

	rows, total, err := repo.List(dbc, u.ID, JournalFilter{Limit: 1})
	if err != nil || total != 2 || len(rows) != 1 || rows[0].Title != "Rough meeting" {
		t.Fatalf("List: rows=%+v total=%d err=%v", rows, total, err)
	}
	rows, total, err = repo.List(dbc, u.ID, JournalFilter{Search: "SLEPT"})
	if err != nil || total != 1 || rows[0].ID != created[0].ID {
		t.Fatalf("List search: rows=%+v total=%d err=%v", rows, total, err)
	}
	rows, total, err = repo.List(dbc, u.ID, JournalFilter{Mood: "😞"})
	if err != nil || total != 1 || rows[0].ID != created[1].ID {
		t.Fatalf("List mood: rows=%+v total=%d err=%v", rows, total, err)
	}

	ok, err := repo.UpdateFields(dbc, u.ID, created[0].ID, map[string]any{"title": "Morning pages v2"})
	if err != nil || !ok {
		t.Fatalf("UpdateFields: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateFields(dbc, other.ID, created[0].ID, map[string]any{"title": "hijack"})
	if err != nil || ok {
		t.Fatalf("UpdateFields (foreign): ok=%v err=%v", ok, err)
	}

	count, err := repo.CountSince(dbc, u.ID, base.AddDate(0, 0, 1))
	if err != nil || count != 1 {
		t.Fatalf("CountSince: %d err=%v", count, err)
	}
	points, err := repo.SumPoints(dbc, u.ID)
	if err != nil || points != 25 {
		t.Fatalf("SumPoints: %d err=%v", points, err)
	}
	if points, err := repo.SumPoints(dbc, uuid.New()); err != nil || points != 0 {
		t.Fatalf("SumPoints (no entries): %d err=%v", points, err)
	}
	dates, err := repo.ListDatesSince(dbc, u.ID, base)
	if err != nil || len(dates) != 2 {
		t.Fatalf("ListDatesSince: %v err=%v", dates, err)
	}
	tags, err := repo.ListTags(dbc, u.ID)
	if err != nil || len(tags) != 2 {
		t.Fatalf("ListTags: %v err=%v", tags, err)
	}

	ids, err := repo.ActiveUserIDsSince(dbc, base)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ActiveUserIDsSince: %v err=%v", ids, err)
	}

	ok, err = repo.Delete(dbc, other.ID, created[1].ID)
	if err != nil || ok {
		t.Fatalf("Delete (foreign): ok=%v err=%v", ok, err)
	}
	ok, err = repo.Delete(dbc, u.ID, created[1].ID)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	count, err = repo.CountByUser(dbc, u.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountByUser: %d err=%v", count, err)
	}
	if _, err := repo.GetByIDForUser(dbc, u.ID, uuid.New()); err != nil {
		t.Fatalf("GetByIDForUser (missing): %v", err)
	}
}
