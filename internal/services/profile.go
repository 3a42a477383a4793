package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/pkg/dberr"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/retry"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
)

var (
	profileFields         = []string{"first_name", "last_name", "username", "email"}
	preferenceFields      = []string{"push_notification", "dark_mode", "wellness_reminders", "weekly_summary"}
	emailPreferenceFields = []string{"weekly_summary", "monthly_summary", "milestones", "daily_reminders", "enabled"}
)

type EmailPreferencesView struct {
	Email       string                 `json:"email"`
	Preferences types.EmailPreferences `json:"preferences"`
}

// ProfileService edits the caller's own account. Each update takes the decoded JSON
// body; keys outside the editable set are ignored.
type ProfileService interface {
	UpdateProfile(ctx context.Context, fields map[string]any) (*types.User, error)
	GetPreferences(ctx context.Context) (*types.UserPreferences, error)
	UpdatePreferences(ctx context.Context, fields map[string]any) (*types.User, error)
	GetEmailPreferences(ctx context.Context) (*EmailPreferencesView, error)
	// UpdateEmailPreferences replaces the stored email preferences. Omitted keys fall
	// back to their defaults on the next read.
	UpdateEmailPreferences(ctx context.Context, prefs map[string]any) (*EmailPreferencesView, error)
}

type profileService struct {
	db    *gorm.DB
	log   *logger.Logger
	users repos.UserRepo
	retry retry.Policy
}

func NewProfileService(db *gorm.DB, log *logger.Logger, users repos.UserRepo) ProfileService {
	serviceLog := log.With("service", "ProfileService")
	return &profileService{
		db:    db,
		log:   serviceLog,
		users: users,
		retry: retry.Store(serviceLog),
	}
}

func profileUpdates(fields map[string]any) (map[string]any, error) {
	updates := map[string]any{}
	for _, key := range profileFields {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		v, isString := raw.(string)
		v = strings.TrimSpace(v)
		if !isString || v == "" {
			return nil, apierr.Validation("%s must be a non-empty string", key)
		}
		switch key {
		case "email":
			if !emailPattern.MatchString(v) {
				return nil, apierr.Validation("invalid email format")
			}
			v = strings.ToLower(v)
		case "username":
			if !usernamePattern.MatchString(v) {
				return nil, apierr.Validation("username must be 3-20 characters and contain only letters, numbers, hyphens, and underscores")
			}
		}
		updates[key] = v
	}
	if len(updates) == 0 {
		return nil, apierr.Validation("no valid fields to update")
	}
	return updates, nil
}

func boolUpdates(fields map[string]any, allowed []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, key := range allowed {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		v, isBool := raw.(bool)
		if !isBool {
			return nil, apierr.Validation("%s must be a boolean value", key)
		}
		out[key] = v
	}
	return out, nil
}

func (ps *profileService) load(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	u, err := ps.users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	return u, nil
}

func (ps *profileService) UpdateProfile(ctx context.Context, fields map[string]any) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := profileUpdates(fields)
	if err != nil {
		return nil, err
	}
	email, _ := updates["email"].(string)
	username, _ := updates["username"].(string)

	return retry.Value(ctx, ps.retry, "profile.update", func(ctx context.Context) (*types.User, error) {
		var out *types.User
		err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			u, err := ps.load(dbc, userID)
			if err != nil {
				return err
			}
			other, err := ps.users.FindOther(dbc, userID, email, username)
			if err != nil {
				return err
			}
			if other != nil {
				if email != "" && strings.EqualFold(other.Email, email) {
					return apierr.Duplicate("email already in use")
				}
				return apierr.Duplicate("username already taken")
			}
			if email != "" && email != u.Email {
				updates["is_verified"] = false
			}
			if err := ps.users.UpdateFields(dbc, userID, updates); err != nil {
				if dberr.IsUniqueViolation(err) {
					return apierr.Duplicate("username already taken")
				}
				return err
			}
			out, err = ps.load(dbc, userID)
			return err
		})
		return out, err
	})
}

func (ps *profileService) GetPreferences(ctx context.Context) (*types.UserPreferences, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return retry.Value(ctx, ps.retry, "preferences.get", func(ctx context.Context) (*types.UserPreferences, error) {
		u, err := ps.load(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return nil, err
		}
		prefs := u.Preferences()
		return &prefs, nil
	})
}

func (ps *profileService) UpdatePreferences(ctx context.Context, fields map[string]any) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	flags, err := boolUpdates(fields, preferenceFields)
	if err != nil {
		return nil, err
	}
	if len(flags) == 0 {
		return nil, apierr.Validation("no valid preference fields to update")
	}
	updates := make(map[string]any, len(flags))
	for k, v := range flags {
		updates[k] = v
	}

	return retry.Value(ctx, ps.retry, "preferences.update", func(ctx context.Context) (*types.User, error) {
		dbc := dbctx.Context{Ctx: ctx}
		if _, err := ps.load(dbc, userID); err != nil {
			return nil, err
		}
		if err := ps.users.UpdateFields(dbc, userID, updates); err != nil {
			return nil, err
		}
		return ps.load(dbc, userID)
	})
}

func (ps *profileService) GetEmailPreferences(ctx context.Context) (*EmailPreferencesView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return retry.Value(ctx, ps.retry, "email_preferences.get", func(ctx context.Context) (*EmailPreferencesView, error) {
		u, err := ps.load(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return nil, err
		}
		return &EmailPreferencesView{Email: u.Email, Preferences: u.EmailPrefs()}, nil
	})
}

func (ps *profileService) UpdateEmailPreferences(ctx context.Context, prefs map[string]any) (*EmailPreferencesView, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, apierr.Validation("valid preferences object is required")
	}
	flags, err := boolUpdates(prefs, emailPreferenceFields)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode email preferences: %w", err)
	}

	return retry.Value(ctx, ps.retry, "email_preferences.update", func(ctx context.Context) (*EmailPreferencesView, error) {
		dbc := dbctx.Context{Ctx: ctx}
		if _, err := ps.load(dbc, userID); err != nil {
			return nil, err
		}
		if err := ps.users.UpdateFields(dbc, userID, map[string]any{"email_preferences": datatypes.JSON(raw)}); err != nil {
			return nil, err
		}
		u, err := ps.load(dbc, userID)
		if err != nil {
			return nil, err
		}
		ps.log.Debug("Updated email preferences", "user_id", userID)
		return &EmailPreferencesView{Email: u.Email, Preferences: u.EmailPrefs()}, nil
	})
}
