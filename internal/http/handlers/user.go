package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/services"
)

type UserHandler struct {
	profile services.ProfileService
}

func NewUserHandler(profile services.ProfileService) *UserHandler {
	return &UserHandler{profile: profile}
}

// PATCH /api/user/profile
// body: any of { "first_name", "last_name", "username", "email" }
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var fields map[string]any
	if err := bindJSON(c, &fields); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	u, err := h.profile.UpdateProfile(c.Request.Context(), fields)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Profile updated successfully", "user": u})
}

// GET /api/user/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.profile.GetPreferences(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "preferences": prefs})
}

// PATCH /api/user/preferences
// body: any of { "push_notification", "dark_mode", "wellness_reminders", "weekly_summary" }
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var fields map[string]any
	if err := bindJSON(c, &fields); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	u, err := h.profile.UpdatePreferences(c.Request.Context(), fields)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Preferences updated successfully", "user": u})
}

// GET /api/user/email-preferences
func (h *UserHandler) GetEmailPreferences(c *gin.Context) {
	view, err := h.profile.GetEmailPreferences(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// PUT /api/user/email-preferences
// body: { "preferences": { "weekly_summary": true, ... } }
func (h *UserHandler) UpdateEmailPreferences(c *gin.Context) {
	var req struct {
		Preferences map[string]any `json:"preferences"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	view, err := h.profile.UpdateEmailPreferences(c.Request.Context(), req.Preferences)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":     "Email preferences updated successfully",
		"email":       view.Email,
		"preferences": view.Preferences,
	})
}
