package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/rasyidev/habitpoint/pkg/apperror"
	"github.com/rasyidev/habitpoint/pkg/response"
)

type LeaderboardHandler struct {
	leaderboardService service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetOverall handles GET /api/leaderboard
func (h *LeaderboardHandler) GetOverall(c *gin.Context) {
	entries, err := h.leaderboardService.GetOverallLeaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, entries)
}

// GetByTask handles GET /api/leaderboard/:taskID
func (h *LeaderboardHandler) GetByTask(c *gin.Context) {
	raw := c.Param("taskID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.Error(c, fmt.Errorf("invalid task id %q: %w", raw, apperror.ErrInvalidInput))
		return
	}

	entries, err := h.leaderboardService.GetTaskLeaderboard(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, entries)
}
