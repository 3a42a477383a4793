package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard?timeRange=week|month|quarter|year
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	dash, err := h.dashboard.Dashboard(c.Request.Context(), c.Query("timeRange"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "data": dash})
}

// GET /api/home
func (h *DashboardHandler) Home(c *gin.Context) {
	home, err := h.dashboard.Home(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, home)
}

// GET /api/user/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "stats": stats})
}
