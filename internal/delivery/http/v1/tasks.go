package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/services"
)

type taskResponse struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	AssigneeID      int64      `json:"assignee_id"`
	AssigneeName    string     `json:"assignee_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DueDate         time.Time  `json:"due_date"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	EffectiveStatus string     `json:"effective_status"`
	Priority        string     `json:"priority"`
	Tags            []string   `json:"tags"`
}

func newTaskResponse(task *models.Task, now time.Time) taskResponse {
	return taskResponse{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		AssigneeID:      task.AssigneeID,
		AssigneeName:    task.AssigneeName,
		CreatedAt:       task.CreatedAt,
		DueDate:         task.DueDate,
		CompletedAt:     task.CompletedAt,
		Status:          task.Status,
		EffectiveStatus: task.EffectiveStatus(now),
		Priority:        task.Priority,
		Tags:            task.TagNames(),
	}
}

func newTaskListResponse(tasks []models.Task, now time.Time) []taskResponse {
	response := make([]taskResponse, len(tasks))
	for i := range tasks {
		response[i] = newTaskResponse(&tasks[i], now)
	}
	return response
}

type createTaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	AssigneeID  int64     `json:"assignee_id" binding:"required"`
	DueDate     time.Time `json:"due_date" binding:"required"`
	Priority    string    `json:"priority"`
	TagIDs      []int64   `json:"tag_ids"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	query, err := parseTaskQuery(c)
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}

	tasks, err := h.tasks.GetTasks(c, query)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskListResponse(tasks, time.Now()))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c, id)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task, time.Now()))
}

type updateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *int64     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	TagIDs      *[]int64   `json:"tag_ids,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, id, services.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to update task")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleChangeTaskStatus(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status == "" {
		abort(c, newBadRequestError("status query parameter is required"))
		return
	}

	task, err := h.tasks.ChangeTaskStatus(c, id, status)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", id).
			Str("status", status).
			Msg("failed to change task status")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	existed, err := h.tasks.DeleteTask(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		abortServiceError(c, err)
		return
	}
	if !existed {
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetOverdueTasks(c *gin.Context) {
	tasks, err := h.tasks.GetOverdueTasks(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list overdue tasks")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskListResponse(tasks, time.Now()))
}

func (h *handlerImpl) HandleCountTasksByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		abort(c, newBadRequestError("status query parameter is required"))
		return
	}

	count, err := h.tasks.CountTasksByStatus(c, status)
	if err != nil {
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "count": count})
}

func parseTaskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError("invalid task id"))
		return 0, false
	}
	return id, true
}

func parseTaskQuery(c *gin.Context) (services.TaskQuery, error) {
	query := services.TaskQuery{
		Status: c.Query("status"),
	}

	if raw := c.Query("assignee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return query, errInvalidQueryParam("assignee_id")
		}
		query.AssigneeID = &id
	}
	if raw := c.Query("due_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errInvalidQueryParam("due_before")
		}
		query.DueBefore = &t
	}
	if raw := c.Query("due_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errInvalidQueryParam("due_after")
		}
		query.DueAfter = &t
	}
	if raw := c.Query("tag_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return query, errInvalidQueryParam("tag_ids")
			}
			query.TagIDs = append(query.TagIDs, id)
		}
	}
	return query, nil
}

func errInvalidQueryParam(name string) apiError {
	return newBadRequestError("invalid query parameter: " + name)
}
