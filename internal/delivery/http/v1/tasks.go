package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
	"github.com/adanyl0v/task-tracker/internal/services"
)

type getTaskResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	OwnerID       int64     `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	CreatedAt     time.Time `json:"created_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:            task.ID,
		Name:          task.Name,
		Status:        task.Status,
		OwnerID:       task.OwnerID,
		OwnerUsername: task.OwnerUsername,
		CreatedAt:     task.CreatedAt,
	}
}

func newGetTasksResponse(tasks []*models.Task) []getTaskResponse {
	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}
	return response
}

type createTaskRequest struct {
	Name   string `json:"name" binding:"required,taskname"`
	Status string `json:"status" binding:"omitempty,taskstatus"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindError(err, errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, actor, services.CreateTaskParams{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

type getTasksQuery struct {
	Status     *string `form:"status"`
	StartsWith *string `form:"starts_with"`
	SortBy     *string `form:"sort_by"`
	Limit      *int    `form:"limit"`
	Offset     *int    `form:"offset"`
}

func (q getTasksQuery) filter() query.TaskFilter {
	return query.TaskFilter{
		Status:     q.Status,
		StartsWith: q.StartsWith,
		SortBy:     q.SortBy,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
}

type listTasksFunc func(ctx context.Context, actor *models.User, filter query.TaskFilter) ([]*models.Task, error)

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	h.handleListTasks(c, h.tasks.ListTasks)
}

func (h *handlerImpl) HandleGetMyTasks(c *gin.Context) {
	h.handleListTasks(c, h.tasks.ListOwnTasks)
}

func (h *handlerImpl) handleListTasks(c *gin.Context, list listTasksFunc) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}

	var q getTasksQuery
	err := c.ShouldBindQuery(&q)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBindError(err, errInvalidQuery.Error()))
		return
	}

	tasks, err := list(c, actor, q.filter())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, actor, taskID)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type updateTaskRequest struct {
	Name   *string `json:"name" binding:"omitempty,taskname"`
	Status *string `json:"status" binding:"omitempty,taskstatus"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindError(err, errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, actor, taskID, models.TaskPatch{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	actor, ok := h.mustGetUser(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, actor, taskID)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) taskIDParam(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.logger.Debug().
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newValidationError(errInvalidTaskID.Error(), "id: must be an integer"))
		return 0, false
	}
	return taskID, true
}
