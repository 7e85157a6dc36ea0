package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/Raus17/task-buddy/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTaskNotFound     = errors.New("task not found")
	ErrStoreReadFailed  = errors.New("store read failed")
	ErrStoreWriteFailed = errors.New("store write failed")
)

// Store is the durable task store scoped by the owning user.
//
// Every operation refuses an empty user id with ErrNotAuthenticated.
type Store interface {
	// ListTasks returns all tasks owned by the user in store order.
	// The caller must not rely on any particular ordering.
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)

	// CreateTask persists a new task and returns it with the
	// store-assigned id. The attachment, if any, is written as part
	// of the same document.
	CreateTask(ctx context.Context, userID string, params CreateParams) (*models.Task, error)

	// UpdateTask replaces the mutable fields of the identified task
	// and returns the stored result. A non-nil attachment replaces
	// the previous one; a nil attachment keeps it.
	//
	// It returns ErrTaskNotFound if the user owns no such task.
	UpdateTask(ctx context.Context, userID, taskID string, params UpdateParams) (*models.Task, error)

	// DeleteTask deletes the task and its attachment. Deleting a
	// task that no longer exists is a success.
	DeleteTask(ctx context.Context, userID, taskID string) error
}

type CreateParams struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Category    string
	Attachment  *models.Attachment
}

type UpdateParams struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Category    string
	Attachment  *models.Attachment
}
