package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/ctxutil"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

func TestRequireCronSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"match", "cron-s3cret", "Bearer cron-s3cret", http.StatusOK},
		{"mismatch", "cron-s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "cron-s3cret", "", http.StatusUnauthorized},
		{"raw secret without scheme", "cron-s3cret", "cron-s3cret", http.StatusUnauthorized},
		{"unconfigured secret", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			r := gin.New()
			r.POST("/batch", RequireCronSecret(tc.secret), func(c *gin.Context) {
				ran = true
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/batch", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.want)
			}
			if ran != (tc.want == http.StatusOK) {
				t.Fatalf("handler ran=%v for status %d", ran, rec.Code)
			}
		})
	}
}

type fakeIdentity struct {
	userID uuid.UUID
}

func (f fakeIdentity) Authenticate(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return ctx, apierr.Unauthorized("invalid token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: f.userID, Subject: "sub"}), nil
}

func (f fakeIdentity) GetMe(context.Context) (*types.User, error) { return nil, nil }

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New()
	am := NewAuthMiddleware(logger.Nop(), fakeIdentity{userID: id})

	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()).String())
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do("Bearer good")
	if rec.Code != http.StatusOK || rec.Body.String() != id.String() {
		t.Fatalf("expected authenticated user, got %d %q", rec.Code, rec.Body.String())
	}

	for _, header := range []string{"", "Bearer bad", "Basic good"} {
		rec := do(header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: got=%d want=401", header, rec.Code)
		}
		var env response.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode error envelope: %v", err)
		}
		if env.Error.Code != apierr.CodeUnauthorized {
			t.Fatalf("header %q: code=%q", header, env.Error.Code)
		}
	}
}
