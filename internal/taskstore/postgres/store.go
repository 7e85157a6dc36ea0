package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/taskstore"
)

type storeImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func New(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) taskstore.Store {
	return &storeImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *storeImpl) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       description,
       due_date,
       status,
       category,
       attachment_name,
       attachment_mime_type,
       attachment_data,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
ORDER BY created_at
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by user id")
		return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreReadFailed, err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task := models.Task{UserID: userID}
		var (
			attachmentName *string
			attachmentMIME *string
			attachmentData []byte
		)
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Status,
			&task.Category,
			&attachmentName,
			&attachmentMIME,
			&attachmentData,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreReadFailed, err)
		}

		if attachmentName != nil {
			task.Attachment = &models.Attachment{
				Name: *attachmentName,
				Data: attachmentData,
			}
			if attachmentMIME != nil {
				task.Attachment.MIMEType = *attachmentMIME
			}
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreReadFailed, err)
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by user id")

	return tasks, nil
}

func (s *storeImpl) CreateTask(ctx context.Context, userID string, params taskstore.CreateParams) (*models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	now := time.Now()
	task := &models.Task{
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Category:    params.Category,
		Attachment:  params.Attachment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreWriteFailed, err)
	}
	task.ID = taskUUID.String()

	var (
		attachmentName *string
		attachmentMIME *string
		attachmentData []byte
	)
	if task.Attachment != nil {
		attachmentName = &task.Attachment.Name
		attachmentMIME = &task.Attachment.MIMEType
		attachmentData = task.Attachment.Data
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   due_date,
                   status,
                   category,
                   attachment_name,
                   attachment_mime_type,
                   attachment_data,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Category,
		attachmentName,
		attachmentMIME,
		attachmentData,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreWriteFailed, err)
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *storeImpl) UpdateTask(ctx context.Context, userID, taskID string, params taskstore.UpdateParams) (*models.Task, error) {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return nil, taskstore.ErrNotAuthenticated
	}

	task := &models.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Category:    params.Category,
		UpdatedAt:   time.Now(),
	}

	var (
		replaceAttachment bool
		attachmentName    *string
		attachmentMIME    *string
		attachmentData    []byte
	)
	if params.Attachment != nil {
		replaceAttachment = true
		attachmentName = &params.Attachment.Name
		attachmentMIME = &params.Attachment.MIMEType
		attachmentData = params.Attachment.Data
	}

	// Overwriting the attachment columns releases the previous blob
	// together with the document write.
	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    due_date = $3,
    status = $4,
    category = $5,
    attachment_name = CASE WHEN $6 THEN $7 ELSE attachment_name END,
    attachment_mime_type = CASE WHEN $6 THEN $8 ELSE attachment_mime_type END,
    attachment_data = CASE WHEN $6 THEN $9 ELSE attachment_data END,
    updated_at = $10
WHERE id = $11 AND user_id = $12
RETURNING attachment_name, attachment_mime_type, attachment_data, created_at
`
	var (
		storedName *string
		storedMIME *string
		storedData []byte
	)
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Status,
		task.Category,
		replaceAttachment,
		attachmentName,
		attachmentMIME,
		attachmentData,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&storedName,
		&storedMIME,
		&storedData,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, taskstore.ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, fmt.Errorf("%w: %v", taskstore.ErrStoreWriteFailed, err)
	}

	if storedName != nil {
		task.Attachment = &models.Attachment{
			Name: *storedName,
			Data: storedData,
		}
		if storedMIME != nil {
			task.Attachment.MIMEType = *storedMIME
		}
	}
	if replaceAttachment {
		s.logger.Debug().
			Str("task_id", task.ID).
			Msg("replaced attachment")
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *storeImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	if userID == "" {
		s.logger.Error().Msg("no user id provided")
		return taskstore.ErrNotAuthenticated
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return fmt.Errorf("%w: %v", taskstore.ErrStoreWriteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		// Already gone, treated as success.
		s.logger.Warn().
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("task already deleted")
		return nil
	}
	s.logger.Debug().
		Str("task_id", taskID).
		Msg("deleted task with attachment")

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}
