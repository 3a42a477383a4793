package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/services"
)

type MeHandler struct {
	identity services.IdentityService
}

func NewMeHandler(identity services.IdentityService) *MeHandler {
	return &MeHandler{identity: identity}
}

// GET /api/me
func (h *MeHandler) GetMe(c *gin.Context) {
	me, err := h.identity.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}
