package wellness

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type MoodRepo interface {
	Create(dbc dbctx.Context, entry *types.MoodEntry) error
	GetForDay(dbc dbctx.Context, userID uuid.UUID, key periods.DayKey) (*types.MoodEntry, error)
	Update(dbc dbctx.Context, id uuid.UUID, emoji string, rate int) error
	ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.MoodEntry, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.MoodEntry, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error)
}

type moodRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMoodRepo(db *gorm.DB, baseLog *logger.Logger) MoodRepo {
	return &moodRepo{db: db, log: baseLog.With("repo", "MoodRepo")}
}

func (r *moodRepo) Create(dbc dbctx.Context, entry *types.MoodEntry) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(entry).Error
}

func (r *moodRepo) GetForDay(dbc dbctx.Context, userID uuid.UUID, key periods.DayKey) (*types.MoodEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.MoodEntry
	err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND day = ? AND year = ?", userID, key.Day, key.Year).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moodRepo) Update(dbc dbctx.Context, id uuid.UUID, emoji string, rate int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.MoodEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"mood_emoji": emoji,
			"mood_rate":  rate,
			"updated_at": time.Now(),
		}).Error
}

func (r *moodRepo) ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.MoodEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	upper := "date < ?"
	if inclusiveEnd {
		upper = "date <= ?"
	}
	out := []*types.MoodEntry{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND date >= ?", userID, start).
		Where(upper, end).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moodRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.MoodEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	out := []*types.MoodEntry{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moodRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.MoodEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *moodRepo) ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(dbc.Context()).
		Model(&types.MoodEntry{}).
		Where("date >= ?", since).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}
