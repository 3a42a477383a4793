package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// Profile is the identity-provider view of a user used to seed the local row.
type Profile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByExternalID(dbc dbctx.Context, externalID string) (*types.User, error)
	FindOrCreate(dbc dbctx.Context, profile Profile) (*types.User, error)
	IncrementPoints(dbc dbctx.Context, id uuid.UUID, delta int) error
	IncrementSessions(dbc dbctx.Context, id uuid.UUID, delta int) error
	UpdateStreaks(dbc dbctx.Context, id uuid.UUID, current, longest int) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	// FindOther returns a user other than excludeID holding email or username. Empty
	// values are not matched.
	FindOther(dbc dbctx.Context, excludeID uuid.UUID, email, username string) (*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := transaction.WithContext(dbc.Context()).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var u types.User
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByExternalID(dbc dbctx.Context, externalID string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var u types.User
	err := transaction.WithContext(dbc.Context()).Where("external_id = ?", externalID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreate returns the local user for an external identity, creating it on first
// sight. Two first requests racing on the unique external_id both end with the same row.
func (ur *userRepo) FindOrCreate(dbc dbctx.Context, profile Profile) (*types.User, error) {
	existing, err := ur.GetByExternalID(dbc, profile.ExternalID)
	if err != nil || existing != nil {
		return existing, err
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	u := &types.User{
		ExternalID: strings.TrimSpace(profile.ExternalID),
		Email:      strings.TrimSpace(profile.Email),
		FirstName:  strings.TrimSpace(profile.FirstName),
		LastName:   strings.TrimSpace(profile.LastName),
	}
	if err := transaction.WithContext(dbc.Context()).Create(u).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			ur.log.Debug("User created concurrently, re-reading", "external_id", profile.ExternalID)
			return ur.GetByExternalID(dbc, profile.ExternalID)
		}
		return nil, err
	}
	ur.log.Info("Created local user", "user_id", u.ID, "external_id", u.ExternalID)
	return u, nil
}

func (ur *userRepo) IncrementPoints(dbc dbctx.Context, id uuid.UUID, delta int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if delta < 0 {
		return errors.New("points never decrease")
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", id).
		Update("total_points", gorm.Expr("total_points + ?", delta)).Error
}

func (ur *userRepo) IncrementSessions(dbc dbctx.Context, id uuid.UUID, delta int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", id).
		Update("sessions", gorm.Expr("sessions + ?", delta)).Error
}

func (ur *userRepo) UpdateStreaks(dbc dbctx.Context, id uuid.UUID, current, longest int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_streak": current,
			"longest_streak": longest,
		}).Error
}

func (ur *userRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (ur *userRepo) FindOther(dbc dbctx.Context, excludeID uuid.UUID, email, username string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" && username == "" {
		return nil, nil
	}
	match := transaction.WithContext(dbc.Context())
	switch {
	case email != "" && username != "":
		match = match.Where("email = ? OR username = ?", email, username)
	case email != "":
		match = match.Where("email = ?", email)
	default:
		match = match.Where("username = ?", username)
	}
	var u types.User
	err := match.Where("id <> ?", excludeID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
