package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/rasyidev/habitpoint/pkg/response"
	"github.com/rasyidev/habitpoint/pkg/validator"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// LogProgress handles POST /api/progress
func (h *ProgressHandler) LogProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input service.LogProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.progressService.LogProgress(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetUserStats handles GET /api/user/stats
func (h *ProgressHandler) GetUserStats(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.progressService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}
