package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rasyidev/habitpoint/internal/repository"
	"github.com/rasyidev/habitpoint/pkg/response"
)

type TaskHandler struct {
	tasks repository.TaskRepository
}

func NewTaskHandler(tasks repository.TaskRepository) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// GetTasks handles GET /api/tasks
func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.tasks.FindActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, tasks)
}
