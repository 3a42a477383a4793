package wellness

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// JournalFilter narrows a paginated journal listing.
type JournalFilter struct {
	Search string
	Mood   string
	Limit  int
	Offset int
}

type JournalRepo interface {
	Create(dbc dbctx.Context, entries []*types.JournalEntry) ([]*types.JournalEntry, error)
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.JournalEntry, error)
	List(dbc dbctx.Context, userID uuid.UUID, filter JournalFilter) ([]*types.JournalEntry, int64, error)
	UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]any) (bool, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.JournalEntry, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error)
	SumPoints(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	ListDatesSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
	ListTags(dbc dbctx.Context, userID uuid.UUID) ([][]string, error)
	ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error)
}

type journalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJournalRepo(db *gorm.DB, baseLog *logger.Logger) JournalRepo {
	return &journalRepo{db: db, log: baseLog.With("repo", "JournalRepo")}
}

func (r *journalRepo) Create(dbc dbctx.Context, entries []*types.JournalEntry) ([]*types.JournalEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(entries) == 0 {
		return []*types.JournalEntry{}, nil
	}
	if err := transaction.WithContext(dbc.Context()).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.JournalEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var j types.JournalEntry
	err := transaction.WithContext(dbc.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *journalRepo) List(dbc dbctx.Context, userID uuid.UUID, filter JournalFilter) ([]*types.JournalEntry, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Where("user_id = ?", userID)
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", like, like)
	}
	if m := strings.TrimSpace(filter.Mood); m != "" {
		q = q.Where("mood_emoji = ?", m)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	out := []*types.JournalEntry{}
	if err := q.Order("date DESC").Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *journalRepo) UpdateFields(dbc dbctx.Context, userID, id uuid.UUID, updates map[string]any) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return true, nil
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *journalRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.JournalEntry{})
	return res.RowsAffected > 0, res.Error
}

func (r *journalRepo) ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.JournalEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	upper := "date < ?"
	if inclusiveEnd {
		upper = "date <= ?"
	}
	out := []*types.JournalEntry{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND date >= ?", userID, start).
		Where(upper, end).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *journalRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	return r.CountSince(dbc, userID, time.Time{})
}

func (r *journalRepo) CountSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("date >= ?", since)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *journalRepo) SumPoints(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

func (r *journalRepo) ListDatesSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var dates []time.Time
	err := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC").
		Pluck("date", &dates).Error
	return dates, err
}

func (r *journalRepo) ListTags(dbc dbctx.Context, userID uuid.UUID) ([][]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.JournalEntry
	if err := transaction.WithContext(dbc.Context()).
		Select("id", "tags").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string(row.Tags))
	}
	return out, nil
}

func (r *journalRepo) ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(dbc.Context()).
		Model(&types.JournalEntry{}).
		Where("date >= ?", since).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}
