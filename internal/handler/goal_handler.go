package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rasyidev/habitpoint/internal/service"
	"github.com/rasyidev/habitpoint/internal/timezone"
	"github.com/rasyidev/habitpoint/pkg/apperror"
	"github.com/rasyidev/habitpoint/pkg/response"
)

type GoalHandler struct {
	goalService service.GoalService
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GetDailyGoals handles GET /api/goals/daily?date=&timezone=
func (h *GoalHandler) GetDailyGoals(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.goalService.GetDailyGoalsForUser(c.Request.Context(), userID, date, c.Query("timezone"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, summary)
}

// GetHistory handles GET /api/goals/history?startDate=&endDate=&taskId=&limit=&offset=
func (h *GoalHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query service.GoalHistoryQuery

	if start, err := parseDateParam(c.Query("startDate")); err != nil {
		response.Error(c, err)
		return
	} else if start != nil {
		query.StartDate = *start
	}

	if end, err := parseDateParam(c.Query("endDate")); err != nil {
		response.Error(c, err)
		return
	} else if end != nil {
		query.EndDate = *end
	}

	if raw := c.Query("taskId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Error(c, fmt.Errorf("invalid task id %q: %w", raw, apperror.ErrInvalidInput))
			return
		}
		taskID := uint(id)
		query.TaskID = &taskID
	}

	// Out-of-range paging values fall back to defaults instead of failing.
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "30"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.goalService.GetGoalHistory(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

type updateTimezoneInput struct {
	Timezone string `json:"timezone" binding:"required"`
}

// UpdateTimezone handles PUT /api/goals/timezone
func (h *GoalHandler) UpdateTimezone(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input updateTimezoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "timezone is required"})
		return
	}

	result, err := h.goalService.UpdateUserTimezone(c.Request.Context(), userID, input.Timezone)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse(timezone.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", raw, apperror.ErrInvalidInput)
	}
	return &parsed, nil
}
