package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GET /api/notifications?limit=50&offset=0&unread_only=false
func (h *NotificationHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	page, err := h.notifications.List(c.Request.Context(), limit, offset, c.Query("unread_only") == "true")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// PUT /api/notifications/:id
// body: { "is_read": true }
func (h *NotificationHandler) SetRead(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req struct {
		IsRead *bool `json:"is_read"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if req.IsRead == nil {
		response.RespondAPIError(c, apierr.Validation("is_read is required"))
		return
	}
	n, err := h.notifications.SetRead(c.Request.Context(), id, *req.IsRead)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, n)
}

// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// POST /api/notifications/bulk
// body: { "action": "mark_all_read", "notification_ids": ["..."] }
func (h *NotificationHandler) Bulk(c *gin.Context) {
	var req struct {
		Action          string   `json:"action"`
		NotificationIDs []string `json:"notification_ids"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.NotificationIDs))
	for _, raw := range req.NotificationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid notification id %q", raw))
			return
		}
		ids = append(ids, id)
	}
	affected, err := h.notifications.Bulk(c.Request.Context(), req.Action, ids)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "affected": affected})
}

// GET /api/notifications/stats
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.notifications.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// POST /api/notifications/generate
// body: { "action": "create_custom_notification", "title": "...", "message": "...", "type": "reminder", "scheduled_for": "..." }
func (h *NotificationHandler) Generate(c *gin.Context) {
	var req struct {
		Action       string     `json:"action"`
		Title        string     `json:"title"`
		Message      string     `json:"message"`
		Type         string     `json:"type"`
		Task         string     `json:"task"`
		ScheduledFor *time.Time `json:"scheduled_for"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	res, err := h.notifications.Generate(c.Request.Context(), services.GenerateRequest{
		Action:       req.Action,
		Title:        req.Title,
		Message:      req.Message,
		Type:         req.Type,
		Task:         req.Task,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "result": res})
}

// POST /api/notifications/setup
// body: { "action": "setup_reminders" | "check_milestones" | "create_tip" }
func (h *NotificationHandler) Setup(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	res, err := h.notifications.Setup(c.Request.Context(), req.Action)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "result": res})
}
