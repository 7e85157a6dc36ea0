package taskcache

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/taskstore"
)

type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Cache is the in-memory mirror of one user's task set. It is
// write-through: every mutation goes to the store first and the
// cached entry is replaced with the store-confirmed result, so the
// cache never shows a state no write was attempted for.
//
// Mutations on the same task id serialize on a per-task lock;
// mutations on different tasks proceed independently.
type Cache struct {
	logger zerolog.Logger
	store  taskstore.Store
	userID string

	mu       sync.RWMutex
	state    State
	tasks    []models.Task
	lastErr  error
	inFlight int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Snapshot is a point-in-time copy of the cached set. Stale is set
// while any mutation is in flight. Err carries the reason for
// StateError; the task set then holds the last known-good contents.
type Snapshot struct {
	Tasks []models.Task
	State State
	Stale bool
	Err   error
}

func New(
	logger zerolog.Logger,
	store taskstore.Store,
	userID string,
) *Cache {
	return &Cache{
		logger: logger,
		store:  store,
		userID: userID,
		state:  StateEmpty,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Refresh replaces the cached set with the store contents. On
// failure the cache transitions to StateError but keeps the last
// known-good set for continued display.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	tasks, err := c.store.ListTasks(ctx, c.userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("user_id", c.userID).
			Msg("failed to refresh task cache")
		c.state = StateError
		c.lastErr = err
		return err
	}

	c.tasks = tasks
	c.state = StateReady
	c.lastErr = nil
	c.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", c.userID).
		Msg("refreshed task cache")
	return nil
}

// Add creates the task in the store and appends the confirmed result.
// Nothing is inserted before the store assigns an id, so a failed
// create leaves the cache untouched.
func (c *Cache) Add(ctx context.Context, params taskstore.CreateParams) (*models.Task, error) {
	c.beginMutation()
	defer c.endMutation()

	created, err := c.store.CreateTask(ctx, c.userID, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.tasks = append(c.tasks, *created)
	c.mu.Unlock()

	task := *created
	return &task, nil
}

// Move transitions the task to newStatus. Moving a task to its
// current status is a no-op and issues no write. Otherwise the full
// document is written with the status replaced and the cache entry
// is swapped for the store-confirmed row.
func (c *Cache) Move(ctx context.Context, taskID, newStatus string) (*models.Task, error) {
	unlock := c.lockTask(taskID)
	defer unlock()

	current, ok := c.get(taskID)
	if !ok {
		// A miss in the mirror is not evidence of absence; the
		// cache may simply never have been populated. Consult the
		// store before reporting not-found.
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		current, ok = c.get(taskID)
		if !ok {
			return nil, taskstore.ErrTaskNotFound
		}
	}
	if current.Status == newStatus {
		return &current, nil
	}

	c.beginMutation()
	defer c.endMutation()

	updated, err := c.store.UpdateTask(ctx, c.userID, taskID, taskstore.UpdateParams{
		Title:       current.Title,
		Description: current.Description,
		DueDate:     current.DueDate,
		Status:      newStatus,
		Category:    current.Category,
	})
	if err != nil {
		return nil, err
	}

	c.put(*updated)
	c.logger.Debug().
		Str("task_id", taskID).
		Str("status", updated.Status).
		Msg("moved task")

	task := *updated
	return &task, nil
}

// Update replaces the mutable fields of the task and swaps the cache
// entry for the store-confirmed row.
func (c *Cache) Update(ctx context.Context, taskID string, params taskstore.UpdateParams) (*models.Task, error) {
	unlock := c.lockTask(taskID)
	defer unlock()

	c.beginMutation()
	defer c.endMutation()

	updated, err := c.store.UpdateTask(ctx, c.userID, taskID, params)
	if err != nil {
		return nil, err
	}

	c.put(*updated)

	task := *updated
	return &task, nil
}

// Remove deletes the task from the store, then drops it from the
// cached set. The store releases the attachment together with the
// document.
func (c *Cache) Remove(ctx context.Context, taskID string) error {
	unlock := c.lockTask(taskID)
	defer unlock()

	c.beginMutation()
	defer c.endMutation()

	err := c.store.DeleteTask(ctx, c.userID, taskID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for i, task := range c.tasks {
		if task.ID == taskID {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	// The per-task mutex stays in the map: another goroutine may be
	// parked on it, and handing that goroutine a fresh mutex would
	// let two mutations for the same id run side by side.
	return nil
}

// Snapshot returns a copy of the cached set and the cache state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]models.Task, len(c.tasks))
	copy(tasks, c.tasks)
	return Snapshot{
		Tasks: tasks,
		State: c.state,
		Stale: c.inFlight > 0,
		Err:   c.lastErr,
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

func (c *Cache) get(taskID string) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, task := range c.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return models.Task{}, false
}

func (c *Cache) put(task models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task
			return
		}
	}
	c.tasks = append(c.tasks, task)
}

func (c *Cache) lockTask(taskID string) func() {
	c.locksMu.Lock()
	lock, ok := c.locks[taskID]
	if !ok {
		lock = new(sync.Mutex)
		c.locks[taskID] = lock
	}
	c.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (c *Cache) beginMutation() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
}

func (c *Cache) endMutation() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}
