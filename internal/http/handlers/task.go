package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stitchpoint/prodplan-backend/internal/http/response"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
	"github.com/stitchpoint/prodplan-backend/internal/services"
)

type TaskHandler struct {
	log  *logger.Logger
	jobs services.JobStatusService
}

func NewTaskHandler(log *logger.Logger, jobs services.JobStatusService) *TaskHandler {
	return &TaskHandler{log: log.With("handler", "TaskHandler"), jobs: jobs}
}

// GET /api/task/:id
func (h *TaskHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("id")
	view, err := h.jobs.Status(dbctx.Context{Ctx: c.Request.Context()}, taskID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "task_not_found", fmt.Errorf("task not found"))
			return
		}
		h.log.Error("Task status lookup failed", "task_id", taskID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "task_status_failed", err)
		return
	}
	response.RespondOK(c, view)
}
