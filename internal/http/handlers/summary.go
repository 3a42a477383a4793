package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/services"
)

const noActivityMessage = "No activity found for this date. Create some mood entries, journals, or perspective sessions first."

type SummaryHandler struct {
	summaries services.SummaryService
	loc       *time.Location
}

func NewSummaryHandler(summaries services.SummaryService, loc *time.Location) *SummaryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryHandler{summaries: summaries, loc: loc}
}

// POST /api/daily-summary/generate
// body: { "date": "2026-10-14" }
func (h *SummaryHandler) GenerateDaily(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondAPIError(c, err)
			return
		}
	}
	date, err := parseDate("date", req.Date, h.loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out, err := h.summaries.GenerateDaily(c.Request.Context(), date)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	switch out.Status {
	case rollup.StatusNoActivity:
		response.RespondOK(c, gin.H{"success": false, "message": noActivityMessage, "isNew": false})
	case rollup.StatusExists:
		response.RespondOK(c, gin.H{"success": true, "summary": out.Summary, "message": "Daily summary already exists for this date", "isNew": false})
	default:
		response.RespondOK(c, gin.H{"success": true, "summary": out.Summary, "message": "Daily summary generated successfully", "isNew": true})
	}
}

// GET /api/daily-summary?days=7 or ?startDate=2026-10-01&endDate=2026-10-14
func (h *SummaryHandler) ListDaily(c *gin.Context) {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	start, err := parseDate("startDate", c.Query("startDate"), h.loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	end, err := parseDate("endDate", c.Query("endDate"), h.loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if (start == nil) != (end == nil) {
		response.RespondAPIError(c, apierr.Validation("startDate and endDate must be given together"))
		return
	}
	rows, err := h.summaries.ListDaily(c.Request.Context(), services.DailyRange{Days: days, Start: start, End: end})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summaries": rows})
}

// GET /api/weekly-summary?limit=4
func (h *SummaryHandler) ListWeekly(c *gin.Context) {
	limit, err := queryInt(c, "limit", 4)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	rows, err := h.summaries.ListWeekly(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summaries": rows})
}

// GET /api/monthly-summary?limit=3
func (h *SummaryHandler) ListMonthly(c *gin.Context) {
	limit, err := queryInt(c, "limit", 3)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	rows, err := h.summaries.ListMonthly(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summaries": rows})
}
