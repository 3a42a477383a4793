package perspective

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// SessionWithCardCount is a history row.
type SessionWithCardCount struct {
	types.PerspectiveSession
	CardCount int64 `json:"card_count"`
}

type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.PerspectiveSession) error
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID, withChildren bool) (*types.PerspectiveSession, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string, completedAt *time.Time) error
	MarkCompleted(dbc dbctx.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	MarkSavedToJournal(dbc dbctx.Context, id, journalID uuid.UUID) (bool, error)
	ReplaceQuizzes(dbc dbctx.Context, sessionID uuid.UUID, quizzes []*types.PerspectiveQuiz) ([]*types.PerspectiveQuiz, error)
	SetAnswer(dbc dbctx.Context, sessionID, quizID uuid.UUID, answer string) (bool, error)
	CreateCards(dbc dbctx.Context, sessionID uuid.UUID, cards []*types.PerspectiveCard) ([]*types.PerspectiveCard, error)
	ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.PerspectiveSession, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*SessionWithCardCount, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountCreatedSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error)
	ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error)

	CreateConversation(dbc dbctx.Context, c *types.Conversation) error
	// ListConversation returns the latest limit turns of a session, oldest first.
	ListConversation(dbc dbctx.Context, userID, sessionID uuid.UUID, limit int) ([]*types.Conversation, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.PerspectiveSession) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if s.Status == "" {
		s.Status = types.SessionStatusInput
	}
	return transaction.WithContext(dbc.Context()).Omit("Quizzes", "Cards").Create(s).Error
}

func (r *sessionRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID, withChildren bool) (*types.PerspectiveSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context())
	if withChildren {
		q = q.Preload("Quizzes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
			Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	}
	var s types.PerspectiveSession
	err := q.Where("id = ? AND user_id = ?", id, userID).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkCompleted moves a session to completed unless it already is. It reports false
// when another request completed the session first.
func (r *sessionRepo) MarkCompleted(dbc dbctx.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("id = ? AND status <> ?", id, types.SessionStatusCompleted).
		Updates(map[string]any{
			"status":       types.SessionStatusCompleted,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkSavedToJournal flips saved_to_journal only when it is still false. It reports
// false when another request already saved the session.
func (r *sessionRepo) MarkSavedToJournal(dbc dbctx.Context, id, journalID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("id = ? AND saved_to_journal = ?", id, false).
		Updates(map[string]any{
			"saved_to_journal": true,
			"journal_id":       journalID,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) ReplaceQuizzes(dbc dbctx.Context, sessionID uuid.UUID, quizzes []*types.PerspectiveQuiz) ([]*types.PerspectiveQuiz, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("session_id = ?", sessionID).
		Delete(&types.PerspectiveQuiz{}).Error; err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return []*types.PerspectiveQuiz{}, nil
	}
	for i, q := range quizzes {
		q.SessionID = sessionID
		q.Position = i
	}
	if err := transaction.WithContext(dbc.Context()).Create(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *sessionRepo) SetAnswer(dbc dbctx.Context, sessionID, quizID uuid.UUID, answer string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveQuiz{}).
		Where("id = ? AND session_id = ?", quizID, sessionID).
		Update("answer_text", answer)
	return res.RowsAffected > 0, res.Error
}

func (r *sessionRepo) CreateCards(dbc dbctx.Context, sessionID uuid.UUID, cards []*types.PerspectiveCard) ([]*types.PerspectiveCard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(cards) == 0 {
		return []*types.PerspectiveCard{}, nil
	}
	for i, c := range cards {
		c.SessionID = sessionID
		c.Position = i
	}
	if err := transaction.WithContext(dbc.Context()).Create(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *sessionRepo) ListRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time, inclusiveEnd bool) ([]*types.PerspectiveSession, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	upper := "date < ?"
	if inclusiveEnd {
		upper = "date <= ?"
	}
	out := []*types.PerspectiveSession{}
	if err := transaction.WithContext(dbc.Context()).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND date >= ?", userID, start).
		Where(upper, end).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*SessionWithCardCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	sessions := []*types.PerspectiveSession{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	out := make([]*SessionWithCardCount, 0, len(sessions))
	if len(sessions) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	type countRow struct {
		SessionID uuid.UUID
		N         int64
	}
	var counts []countRow
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveCard{}).
		Select("session_id, COUNT(*) AS n").
		Where("session_id IN ?", ids).
		Group("session_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.SessionID] = c.N
	}
	for _, s := range sessions {
		out = append(out, &SessionWithCardCount{PerspectiveSession: *s, CardCount: byID[s.ID]})
	}
	return out, nil
}

func (r *sessionRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	return r.CountCreatedSince(dbc, userID, time.Time{})
}

func (r *sessionRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("user_id = ? AND status = ?", userID, types.SessionStatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *sessionRepo) CountCreatedSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *sessionRepo) ActiveUserIDsSince(dbc dbctx.Context, since time.Time) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(dbc.Context()).
		Model(&types.PerspectiveSession{}).
		Where("date >= ?", since).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *sessionRepo) CreateConversation(dbc dbctx.Context, c *types.Conversation) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(c).Error
}

func (r *sessionRepo) ListConversation(dbc dbctx.Context, userID, sessionID uuid.UUID, limit int) ([]*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	out := []*types.Conversation{}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
