package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/services"
	"github.com/Raus17/task-buddy/internal/taskfilter"
	"github.com/Raus17/task-buddy/internal/taskstore"
)

// Due dates travel as ISO calendar dates without a time component.
const dueDateLayout = "2006-01-02"

type attachmentPayload struct {
	Name     string `json:"name" binding:"required,max=255"`
	MIMEType string `json:"mime_type" binding:"max=255"`
	Data     []byte `json:"data" binding:"required"`
}

type getTaskResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Date        string             `json:"date"`
	Status      string             `json:"status"`
	Category    string             `json:"category,omitempty"`
	Attachment  *attachmentPayload `json:"attachment,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	resp := getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Category:    task.Category,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if !task.DueDate.IsZero() {
		resp.Date = task.DueDate.Format(dueDateLayout)
	}
	if task.Attachment != nil {
		resp.Attachment = &attachmentPayload{
			Name:     task.Attachment.Name,
			MIMEType: task.Attachment.MIMEType,
			Data:     task.Attachment.Data,
		}
	}
	return resp
}

func newGetTasksResponse(tasks []models.Task) []getTaskResponse {
	response := make([]getTaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newGetTaskResponse(&tasks[i])
	}
	return response
}

// staleTasksResponse wraps a last known-good task set that could not
// be refreshed. A plain array means the list is current.
type staleTasksResponse struct {
	Tasks []getTaskResponse `json:"tasks"`
	Stale bool              `json:"stale"`
	Error string            `json:"error"`
}

type staleBoardResponse struct {
	Lanes map[string][]getTaskResponse `json:"lanes"`
	Stale bool                         `json:"stale"`
	Error string                       `json:"error"`
}

func newStaleTasksResponse(tasks []models.Task, err error) staleTasksResponse {
	return staleTasksResponse{
		Tasks: newGetTasksResponse(tasks),
		Stale: true,
		Error: err.Error(),
	}
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(c, userID, filter)
	if err != nil {
		if tasks == nil {
			h.logger.Error().
				Err(err).
				Msg("failed to list tasks")
			h.abortTaskError(c, err)
			return
		}
		// The refresh failed but a last known-good set survives:
		// serve it marked stale so the client can warn the user.
		h.logger.Warn().
			Err(err).
			Msg("serving stale tasks")
		c.JSON(http.StatusOK, newStaleTasksResponse(tasks, err))
		return
	}
	h.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")

	h.logger.Info().Msg("fetched tasks")
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleGetBoard(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	lanes, err := h.tasks.Board(c, userID, filter)
	if err != nil && lanes == nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build board")
		h.abortTaskError(c, err)
		return
	}

	response := make(map[string][]getTaskResponse, len(lanes))
	for status, tasks := range lanes {
		response[status] = newGetTasksResponse(tasks)
	}
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("serving stale board")
		c.JSON(http.StatusOK, staleBoardResponse{
			Lanes: response,
			Stale: true,
			Error: err.Error(),
		})
		return
	}

	h.logger.Info().Msg("fetched board")
	c.JSON(http.StatusOK, response)
}

type createTaskRequest struct {
	Title       string             `json:"title" binding:"required,max=255"`
	Description string             `json:"description"`
	Date        string             `json:"date" binding:"required"`
	Status      string             `json:"status"`
	Category    string             `json:"category" binding:"max=255"`
	Attachment  *attachmentPayload `json:"attachment,omitempty"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, err := time.Parse(dueDateLayout, req.Date)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("date", req.Date).
			Msg("failed to parse due date")
		abort(c, newBadRequestError("invalid due date"))
		return
	}

	task, err := h.tasks.CreateTask(c, userID, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      req.Status,
		Category:    req.Category,
		Attachment:  newAttachment(req.Attachment),
	})
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("created task")
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

type updateTaskRequest struct {
	Title       string             `json:"title" binding:"required,max=255"`
	Description string             `json:"description"`
	Date        string             `json:"date" binding:"required"`
	Status      string             `json:"status" binding:"required"`
	Category    string             `json:"category" binding:"max=255"`
	Attachment  *attachmentPayload `json:"attachment,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
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

	dueDate, err := time.Parse(dueDateLayout, req.Date)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("date", req.Date).
			Msg("failed to parse due date")
		abort(c, newBadRequestError("invalid due date"))
		return
	}

	task, err := h.tasks.UpdateTask(c, userID, taskID, services.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      req.Status,
		Category:    req.Category,
		Attachment:  newAttachment(req.Attachment),
	})
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("updated task")
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	status := c.Query("status")
	if status == "" {
		h.logger.Error().Msg("no status provided")
		abort(c, newBadRequestError("no status provided"))
		return
	}

	task, err := h.tasks.SetTaskStatus(c, userID, taskID, status)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("set task status")
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type setTasksStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Status string   `json:"status" binding:"required"`
}

func (h *handlerImpl) HandleSetTasksStatus(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req setTasksStatusRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	tasks, err := h.tasks.SetTasksStatus(c, userID, req.IDs, req.Status)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("set status on tasks")
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("no task id provided"))
		return
	}

	err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("deleted task")
	c.Status(http.StatusNoContent)
}

type deleteTasksRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

func (h *handlerImpl) HandleDeleteTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req deleteTasksRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.tasks.DeleteTasks(c, userID, req.IDs)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	h.logger.Info().Msg("deleted tasks")
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) bindFilter(c *gin.Context) (taskfilter.Filter, bool) {
	due := c.Query("due")
	if !taskfilter.ValidBucket(due) {
		h.logger.Error().
			Str("due", due).
			Msg("invalid due-date bucket")
		abort(c, newBadRequestError("invalid due-date bucket"))
		return taskfilter.Filter{}, false
	}

	return taskfilter.Filter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Due:      taskfilter.DueBucket(due),
	}, true
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, taskstore.ErrNotAuthenticated):
		abort(c, newUnauthorizedError(taskstore.ErrNotAuthenticated.Error()))
	case errors.Is(err, taskstore.ErrTaskNotFound):
		abort(c, newNotFoundError(taskstore.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrDescriptionTooLong):
		abort(c, newBadRequestError(err.Error()))
	case errors.Is(err, services.ErrAttachmentTooLarge):
		abort(c, newAPIError(http.StatusRequestEntityTooLarge, services.ErrAttachmentTooLarge.Error()))
	case errors.Is(err, taskstore.ErrStoreReadFailed),
		errors.Is(err, taskstore.ErrStoreWriteFailed):
		abort(c, newBadGatewayError(err.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

func newAttachment(payload *attachmentPayload) *models.Attachment {
	if payload == nil {
		return nil
	}
	return &models.Attachment{
		Name:     payload.Name,
		MIMEType: payload.MIMEType,
		Data:     payload.Data,
	}
}
