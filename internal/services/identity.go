package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/ctxutil"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type IdentityConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// IdentityService turns an identity-provider bearer token into a local user.
type IdentityService interface {
	// Authenticate verifies token and returns ctx carrying the caller's request data.
	Authenticate(ctx context.Context, token string) (context.Context, error)
	GetMe(ctx context.Context) (*types.User, error)
}

type identityService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	cfg      IdentityConfig
}

func NewIdentityService(log *logger.Logger, userRepo repos.UserRepo, cfg IdentityConfig) IdentityService {
	return &identityService{
		log:      log.With("service", "IdentityService"),
		userRepo: userRepo,
		cfg:      cfg,
	}
}

type identityClaims struct {
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

func (is *identityService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if is.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(is.cfg.Issuer))
	}
	if is.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(is.cfg.Audience))
	}
	return opts
}

func (is *identityService) Authenticate(ctx context.Context, token string) (context.Context, error) {
	if strings.TrimSpace(is.cfg.Secret) == "" {
		return ctx, apierr.Unauthorized("authentication is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx, apierr.Unauthorized("missing bearer token")
	}

	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(is.cfg.Secret), nil
	}, is.parserOptions()...)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.Unauthorized("token expired")
		}
		return ctx, apierr.Unauthorized("invalid token")
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return ctx, apierr.Unauthorized("token has no subject")
	}

	profile := repos.UserProfile{
		ExternalID: sub,
		Email:      strings.ToLower(strings.TrimSpace(claims.Email)),
		FirstName:  firstNonEmpty(claims.GivenName, claims.FirstName),
		LastName:   firstNonEmpty(claims.FamilyName, claims.LastName),
	}
	u, err := is.userRepo.FindOrCreate(dbctx.Context{Ctx: ctx}, profile)
	if err != nil {
		is.log.Error("Failed to sync user", "external_id", sub, "error", err)
		return ctx, fmt.Errorf("sync user: %w", err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID, Subject: sub}), nil
}

func (is *identityService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := is.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	return u, nil
}

// requireUser returns the authenticated caller's local id.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("unauthorized")
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
