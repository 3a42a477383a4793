package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	identity services.IdentityService
}

func NewAuthMiddleware(log *logger.Logger, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), identity: identity}
}

// RequireAuth resolves the bearer token to a local user and attaches its request data.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.RespondAPIError(c, apierr.Unauthorized("missing or invalid token"))
			return
		}
		ctx, err := am.identity.Authenticate(c.Request.Context(), token)
		if err != nil {
			var ae *apierr.Error
			if !errors.As(err, &ae) {
				am.log.Error("Authentication failed", "error", err)
			}
			response.RespondAPIError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireCronSecret guards batch routes with a shared secret compared in constant
// time. An empty secret rejects every request.
func RequireCronSecret(secret string) gin.HandlerFunc {
	want := []byte("Bearer " + secret)
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader("Authorization")))
		if secret == "" || subtle.ConstantTimeCompare(got, want) != 1 {
			response.RespondAPIError(c, apierr.Unauthorized("unauthorized"))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
