package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/taskfilter"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrTitleRequired      = errors.New("task title required")
	ErrDueDateRequired    = errors.New("task due date required")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrDescriptionTooLong = errors.New("task description too long")
	ErrAttachmentTooLarge = errors.New("attachment too large")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email, password and profile.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TaskService validates task input and drives the per-user task
// cache. All operations are scoped by the authenticated user's id
// and refuse to proceed without one.
type TaskService interface {
	// ListTasks refreshes the user's cache and returns the tasks
	// matching the filter. If the refresh fails but a last
	// known-good set exists, that set is returned together with the
	// refresh error so callers can present a stale list.
	ListTasks(ctx context.Context, userID string, filter taskfilter.Filter) ([]models.Task, error)

	// Board returns the filtered tasks partitioned into the three
	// status lanes, with the same stale-list contract as ListTasks.
	Board(ctx context.Context, userID string, filter taskfilter.Filter) (map[string][]models.Task, error)

	CreateTask(ctx context.Context, userID string, params CreateTaskParams) (*models.Task, error)

	UpdateTask(ctx context.Context, userID, taskID string, params UpdateTaskParams) (*models.Task, error)

	// SetTaskStatus moves the task to the given lane. Setting the
	// current status is a no-op.
	SetTaskStatus(ctx context.Context, userID, taskID, status string) (*models.Task, error)

	// SetTasksStatus moves several tasks to the given lane. Tasks
	// that no longer exist are skipped.
	SetTasksStatus(ctx context.Context, userID string, taskIDs []string, status string) ([]models.Task, error)

	DeleteTask(ctx context.Context, userID, taskID string) error

	// DeleteTasks deletes several tasks. Tasks that no longer
	// exist are skipped.
	DeleteTasks(ctx context.Context, userID string, taskIDs []string) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Category    string
	Attachment  *models.Attachment
}

type UpdateTaskParams struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Category    string
	Attachment  *models.Attachment
}
