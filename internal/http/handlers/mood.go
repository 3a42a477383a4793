package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/services"
)

type MoodHandler struct {
	moods services.MoodService
	loc   *time.Location
}

func NewMoodHandler(moods services.MoodService, loc *time.Location) *MoodHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MoodHandler{moods: moods, loc: loc}
}

// POST /api/mood
// body: { "mood_emoji": "😊", "mood_rate": 7, "date": "2026-10-14" }
func (h *MoodHandler) Upsert(c *gin.Context) {
	var req struct {
		MoodEmoji string `json:"mood_emoji"`
		MoodRate  *int   `json:"mood_rate"`
		Date      string `json:"date"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	date, err := parseDate("date", req.Date, h.loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	mood, created, err := h.moods.Upsert(c.Request.Context(), services.MoodInput{
		Emoji: req.MoodEmoji,
		Rate:  req.MoodRate,
		Date:  date,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	msg := "Mood updated successfully"
	if created {
		msg = "Mood saved successfully"
	}
	response.RespondOK(c, gin.H{"success": true, "mood": mood, "message": msg})
}

// GET /api/mood?type=today|trends|recent&days=7
func (h *MoodHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	switch c.DefaultQuery("type", "today") {
	case "today":
		mood, err := h.moods.Today(ctx)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"mood": mood})
	case "trends":
		days, err := queryInt(c, "days", 7)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		trends, err := h.moods.Trends(ctx, days)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"trends": trends})
	case "recent":
		moods, err := h.moods.Recent(ctx)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"moods": moods})
	default:
		response.RespondAPIError(c, apierr.Validation("type must be today, trends or recent"))
	}
}
