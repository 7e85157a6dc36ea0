package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/taskcache"
	"github.com/Raus17/task-buddy/internal/taskfilter"
	"github.com/Raus17/task-buddy/internal/taskstore"
)

// The editor soft-caps descriptions at 300 characters of plain text.
const maxDescriptionLength = 300

type taskServiceImpl struct {
	logger            zerolog.Logger
	caches            *taskcache.Registry
	maxAttachmentSize int64
}

func NewTaskService(
	logger zerolog.Logger,
	caches *taskcache.Registry,
	maxAttachmentSize int64,
) TaskService {
	return &taskServiceImpl{
		logger:            logger,
		caches:            caches,
		maxAttachmentSize: maxAttachmentSize,
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, userID string, filter taskfilter.Filter) ([]models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	cache := s.caches.ForUser(userID)
	err := cache.Refresh(ctx)
	snapshot := cache.Snapshot()
	if err != nil {
		if len(snapshot.Tasks) == 0 {
			return nil, err
		}
		// A failed refresh must not clear what the user already
		// sees: the last known-good set is served alongside the
		// error so callers can tell the list is stale.
		s.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("refresh failed, serving last known-good tasks")
		return filter.Apply(snapshot.Tasks, time.Now()), err
	}

	return filter.Apply(snapshot.Tasks, time.Now()), nil
}

func (s *taskServiceImpl) Board(ctx context.Context, userID string, filter taskfilter.Filter) (map[string][]models.Task, error) {
	tasks, err := s.ListTasks(ctx, userID, filter)
	if err != nil && tasks == nil {
		return nil, err
	}
	return taskfilter.Lanes(tasks), err
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, userID string, params CreateTaskParams) (*models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	params.Title = strings.TrimSpace(params.Title)
	if params.Status == "" {
		params.Status = models.StatusToDo
	}

	err := s.validateTask(params.Title, params.Description, params.DueDate, params.Status, params.Attachment)
	if err != nil {
		return nil, err
	}

	task, err := s.caches.ForUser(userID).Add(ctx, taskstore.CreateParams{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Category:    params.Category,
		Attachment:  params.Attachment,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", userID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, userID, taskID string, params UpdateTaskParams) (*models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	params.Title = strings.TrimSpace(params.Title)
	err := s.validateTask(params.Title, params.Description, params.DueDate, params.Status, params.Attachment)
	if err != nil {
		return nil, err
	}

	task, err := s.caches.ForUser(userID).Update(ctx, taskID, taskstore.UpdateParams{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Category:    params.Category,
		Attachment:  params.Attachment,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) SetTaskStatus(ctx context.Context, userID, taskID, status string) (*models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}
	if !models.ValidStatus(status) {
		s.logger.Error().
			Str("status", status).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	task, err := s.caches.ForUser(userID).Move(ctx, taskID, status)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("failed to move task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("status", status).
		Str("user_id", userID).
		Msg("set task status")
	return task, nil
}

func (s *taskServiceImpl) SetTasksStatus(ctx context.Context, userID string, taskIDs []string, status string) ([]models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}
	if !models.ValidStatus(status) {
		s.logger.Error().
			Str("status", status).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	cache := s.caches.ForUser(userID)
	moved := make([]models.Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := cache.Move(ctx, taskID, status)
		if err != nil {
			if errors.Is(err, taskstore.ErrTaskNotFound) {
				s.logger.Warn().
					Str("task_id", taskID).
					Msg("skipping missing task")
				continue
			}
			s.logger.Error().
				Err(err).
				Str("task_id", taskID).
				Msg("failed to move task")
			return nil, err
		}
		moved = append(moved, *task)
	}

	s.logger.Info().
		Int("count", len(moved)).
		Str("status", status).
		Str("user_id", userID).
		Msg("set status on tasks")
	return moved, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return taskstore.ErrNotAuthenticated
	}

	err := s.caches.ForUser(userID).Remove(ctx, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) DeleteTasks(ctx context.Context, userID string, taskIDs []string) error {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return taskstore.ErrNotAuthenticated
	}

	cache := s.caches.ForUser(userID)
	for _, taskID := range taskIDs {
		err := cache.Remove(ctx, taskID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", taskID).
				Msg("failed to delete task")
			return err
		}
	}

	s.logger.Info().
		Int("count", len(taskIDs)).
		Str("user_id", userID).
		Msg("deleted tasks")
	return nil
}

func (s *taskServiceImpl) validateTask(title, description string, dueDate time.Time, status string, attachment *models.Attachment) error {
	if title == "" {
		return ErrTitleRequired
	}
	if dueDate.IsZero() {
		return ErrDueDateRequired
	}
	if !models.ValidStatus(status) {
		return ErrInvalidTaskStatus
	}
	if plainTextLength(description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if attachment != nil && int64(len(attachment.Data)) > s.maxAttachmentSize {
		s.logger.Error().
			Int("size", len(attachment.Data)).
			Int64("max", s.maxAttachmentSize).
			Msg("attachment too large")
		return ErrAttachmentTooLarge
	}
	return nil
}

// plainTextLength counts the visible characters of a description,
// skipping HTML tags the rich-text editor produces.
func plainTextLength(s string) int {
	n := 0
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			n++
		}
	}
	return n
}
