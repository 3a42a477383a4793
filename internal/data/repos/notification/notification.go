package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// TypeReadCount is one group of the per-user notification stats.
type TypeReadCount struct {
	Type   string `json:"type"`
	IsRead bool   `json:"is_read"`
	Count  int64  `json:"count"`
}

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) error
	ListForUser(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Notification, int64, error)
	SetRead(dbc dbctx.Context, userID, id uuid.UUID, isRead bool) (*types.Notification, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	BulkSetRead(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID, isRead bool) (int64, error)
	BulkDelete(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	StatsByTypeAndRead(dbc dbctx.Context, userID uuid.UUID) ([]TypeReadCount, error)
	ExistsWithTitleSince(dbc dbctx.Context, userID uuid.UUID, notifType, title string, since time.Time) (bool, error)
	HasPendingOfType(dbc dbctx.Context, userID uuid.UUID, notifType string) (bool, error)
	MarkDueSent(dbc dbctx.Context, now time.Time) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(n).Error
}

// ListForUser lists delivered notifications only; pending scheduled rows stay hidden
// until the sweeper stamps sent_at.
func (r *notificationRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Notification, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("user_id = ? AND sent_at IS NOT NULL", userID)
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	out := []*types.Notification{}
	if err := q.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetRead returns nil when the row does not exist or belongs to another user.
func (r *notificationRepo) SetRead(dbc dbctx.Context, userID, id uuid.UUID, isRead bool) (*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": isRead, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var n types.Notification
	if err := transaction.WithContext(dbc.Context()).Where("id = ?", id).Take(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Notification{})
	return res.RowsAffected > 0, res.Error
}

// BulkSetRead touches every notification of the user when ids is empty.
func (r *notificationRepo) BulkSetRead(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID, isRead bool) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, !isRead)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Updates(map[string]any{"is_read": isRead, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) BulkDelete(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).Where("user_id = ?", userID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Delete(&types.Notification{})
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) StatsByTypeAndRead(dbc dbctx.Context, userID uuid.UUID) ([]TypeReadCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []TypeReadCount{}
	err := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Select("type, is_read, COUNT(*) AS count").
		Where("user_id = ? AND sent_at IS NOT NULL", userID).
		Group("type, is_read").
		Order("type ASC").
		Scan(&out).Error
	return out, err
}

func (r *notificationRepo) ExistsWithTitleSince(dbc dbctx.Context, userID uuid.UUID, notifType, title string, since time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("user_id = ? AND type = ? AND title = ? AND created_at >= ?", userID, notifType, title, since).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepo) HasPendingOfType(dbc dbctx.Context, userID uuid.UUID, notifType string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("user_id = ? AND type = ? AND scheduled_for IS NOT NULL AND sent_at IS NULL", userID, notifType).
		Count(&count).Error
	return count > 0, err
}

// MarkDueSent delivers every pending notification whose schedule has passed in a
// single statement and returns how many rows it stamped.
func (r *notificationRepo) MarkDueSent(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.Notification{}).
		Where("scheduled_for IS NOT NULL AND scheduled_for <= ? AND sent_at IS NULL", now).
		Updates(map[string]any{"sent_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}
