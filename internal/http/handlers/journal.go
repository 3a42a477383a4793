package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/services"
)

type JournalHandler struct {
	journals services.JournalService
}

func NewJournalHandler(journals services.JournalService) *JournalHandler {
	return &JournalHandler{journals: journals}
}

// POST /api/journal
// body: { "title": "...", "content": "...", "mood_emoji": "🙂", "tags": ["work"] }
func (h *JournalHandler) Create(c *gin.Context) {
	var req struct {
		Title     string   `json:"title"`
		Content   string   `json:"content"`
		MoodEmoji string   `json:"mood_emoji"`
		Tags      []string `json:"tags"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	entry, err := h.journals.Create(c.Request.Context(), services.JournalInput{
		Title:     req.Title,
		Content:   req.Content,
		MoodEmoji: req.MoodEmoji,
		Tags:      req.Tags,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":      true,
		"journal":      entry,
		"pointsEarned": entry.PointsEarned,
		"message":      "Journal entry created successfully",
	})
}

// GET /api/journal?page=1&limit=10&search=&mood=
func (h *JournalHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out, err := h.journals.List(c.Request.Context(), services.JournalListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Mood:   c.Query("mood"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/journal/:id
func (h *JournalHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	entry, err := h.journals.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"journal": entry})
}

// PUT /api/journal/:id
func (h *JournalHandler) Update(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req struct {
		Title     *string  `json:"title"`
		Content   *string  `json:"content"`
		MoodEmoji *string  `json:"mood_emoji"`
		Tags      []string `json:"tags"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	entry, err := h.journals.Update(c.Request.Context(), id, services.JournalUpdate{
		Title:     req.Title,
		Content:   req.Content,
		MoodEmoji: req.MoodEmoji,
		Tags:      req.Tags,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "journal": entry})
}

// DELETE /api/journal/:id
func (h *JournalHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if err := h.journals.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Journal entry deleted successfully"})
}

// GET /api/journal/stats
func (h *JournalHandler) Stats(c *gin.Context) {
	stats, err := h.journals.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}
