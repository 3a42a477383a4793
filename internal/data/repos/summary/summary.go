package summary

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

// SummaryRepo stores the three rollup tables. Create* surfaces the unique-index
// violation untouched so callers can treat it as an idempotent skip.
type SummaryRepo interface {
	CreateDaily(dbc dbctx.Context, s *types.DailySummary) error
	GetDaily(dbc dbctx.Context, userID uuid.UUID, key periods.DayKey) (*types.DailySummary, error)
	ListDailyRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailySummary, error)

	CreateWeekly(dbc dbctx.Context, s *types.WeeklySummary) error
	GetWeekly(dbc dbctx.Context, userID uuid.UUID, key periods.WeekKey) (*types.WeeklySummary, error)
	ListWeeklyRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.WeeklySummary, error)
	ListWeekly(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.WeeklySummary, error)

	CreateMonthly(dbc dbctx.Context, s *types.MonthlySummary) error
	GetMonthly(dbc dbctx.Context, userID uuid.UUID, key periods.MonthKey) (*types.MonthlySummary, error)
	ListMonthly(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.MonthlySummary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{db: db, log: baseLog.With("repo", "SummaryRepo")}
}

func (r *summaryRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context())
}

func (r *summaryRepo) CreateDaily(dbc dbctx.Context, s *types.DailySummary) error {
	return r.tx(dbc).Create(s).Error
}

func (r *summaryRepo) GetDaily(dbc dbctx.Context, userID uuid.UUID, key periods.DayKey) (*types.DailySummary, error) {
	var s types.DailySummary
	err := r.tx(dbc).
		Where("user_id = ? AND day = ? AND year = ?", userID, key.Day, key.Year).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListDailyRange returns the summaries dated inside the inclusive window, newest first.
func (r *summaryRepo) ListDailyRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailySummary, error) {
	out := []*types.DailySummary{}
	if err := r.tx(dbc).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryRepo) CreateWeekly(dbc dbctx.Context, s *types.WeeklySummary) error {
	return r.tx(dbc).Create(s).Error
}

func (r *summaryRepo) GetWeekly(dbc dbctx.Context, userID uuid.UUID, key periods.WeekKey) (*types.WeeklySummary, error) {
	var s types.WeeklySummary
	err := r.tx(dbc).
		Where("user_id = ? AND week = ? AND month = ? AND year = ?", userID, key.Week, key.Month, key.Year).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListWeeklyRange returns weeks whose start falls inside the inclusive window.
func (r *summaryRepo) ListWeeklyRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.WeeklySummary, error) {
	out := []*types.WeeklySummary{}
	if err := r.tx(dbc).
		Where("user_id = ? AND week_start >= ? AND week_start <= ?", userID, start, end).
		Order("week_start ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryRepo) ListWeekly(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.WeeklySummary, error) {
	if limit <= 0 {
		limit = 4
	}
	out := []*types.WeeklySummary{}
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("week_start DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *summaryRepo) CreateMonthly(dbc dbctx.Context, s *types.MonthlySummary) error {
	return r.tx(dbc).Create(s).Error
}

func (r *summaryRepo) GetMonthly(dbc dbctx.Context, userID uuid.UUID, key periods.MonthKey) (*types.MonthlySummary, error) {
	var s types.MonthlySummary
	err := r.tx(dbc).
		Where("user_id = ? AND month = ? AND year = ?", userID, key.Month, key.Year).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *summaryRepo) ListMonthly(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.MonthlySummary, error) {
	if limit <= 0 {
		limit = 3
	}
	out := []*types.MonthlySummary{}
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("month_start DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
