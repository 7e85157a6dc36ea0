package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Raus17/task-buddy/internal/models"
	"github.com/Raus17/task-buddy/internal/services"
	"github.com/Raus17/task-buddy/internal/taskfilter"
	"github.com/Raus17/task-buddy/internal/taskstore"
)

// --- fakes ---

type fakeTaskService struct {
	listFn      func(ctx context.Context, userID string, filter taskfilter.Filter) ([]models.Task, error)
	boardFn     func(ctx context.Context, userID string, filter taskfilter.Filter) (map[string][]models.Task, error)
	createFn    func(ctx context.Context, userID string, params services.CreateTaskParams) (*models.Task, error)
	updateFn    func(ctx context.Context, userID, taskID string, params services.UpdateTaskParams) (*models.Task, error)
	setStatusFn func(ctx context.Context, userID, taskID, status string) (*models.Task, error)
	bulkMoveFn  func(ctx context.Context, userID string, taskIDs []string, status string) ([]models.Task, error)
	deleteFn    func(ctx context.Context, userID, taskID string) error
	bulkDelFn   func(ctx context.Context, userID string, taskIDs []string) error
}

func (s *fakeTaskService) ListTasks(ctx context.Context, userID string, filter taskfilter.Filter) ([]models.Task, error) {
	return s.listFn(ctx, userID, filter)
}

func (s *fakeTaskService) Board(ctx context.Context, userID string, filter taskfilter.Filter) (map[string][]models.Task, error) {
	return s.boardFn(ctx, userID, filter)
}

func (s *fakeTaskService) CreateTask(ctx context.Context, userID string, params services.CreateTaskParams) (*models.Task, error) {
	return s.createFn(ctx, userID, params)
}

func (s *fakeTaskService) UpdateTask(ctx context.Context, userID, taskID string, params services.UpdateTaskParams) (*models.Task, error) {
	return s.updateFn(ctx, userID, taskID, params)
}

func (s *fakeTaskService) SetTaskStatus(ctx context.Context, userID, taskID, status string) (*models.Task, error) {
	return s.setStatusFn(ctx, userID, taskID, status)
}

func (s *fakeTaskService) SetTasksStatus(ctx context.Context, userID string, taskIDs []string, status string) ([]models.Task, error) {
	return s.bulkMoveFn(ctx, userID, taskIDs, status)
}

func (s *fakeTaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.deleteFn(ctx, userID, taskID)
}

func (s *fakeTaskService) DeleteTasks(ctx context.Context, userID string, taskIDs []string) error {
	return s.bulkDelFn(ctx, userID, taskIDs)
}

func newTestRouter(t *testing.T, svc services.TaskService) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &handlerImpl{
		logger: zerolog.Nop(),
		tasks:  svc,
	}

	router := gin.New()
	authStub := func(c *gin.Context) {
		c.Set(userIDCtxKey, "user-1")
		c.Next()
	}
	tasksRouter := router.Group("/api/v1/tasks", authStub)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.GET("/board", h.HandleGetBoard)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.PATCH("/:id/status", h.HandleSetTaskStatus)
	tasksRouter.PATCH("/status", h.HandleSetTasksStatus)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.DELETE("", h.HandleDeleteTasks)
	return router
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body err=%v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)
	return rr
}

// --- tests ---

func TestHandleGetTasks_PassesFilter(t *testing.T) {
	var gotFilter taskfilter.Filter
	svc := &fakeTaskService{
		listFn: func(_ context.Context, userID string, filter taskfilter.Filter) ([]models.Task, error) {
			if userID != "user-1" {
				t.Fatalf("ListTasks() userID=%s, want user-1", userID)
			}
			gotFilter = filter
			return []models.Task{{ID: "1", Title: "t", Status: models.StatusToDo, DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}}, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks?search=milk&category=Work&due=week", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /tasks status=%d, want %d", rr.Code, http.StatusOK)
	}

	want := taskfilter.Filter{Search: "milk", Category: "Work", Due: taskfilter.DueWeek}
	if gotFilter != want {
		t.Fatalf("filter=%+v, want %+v", gotFilter, want)
	}

	var resp []getTaskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if len(resp) != 1 || resp[0].Date != "2024-06-01" {
		t.Fatalf("response=%+v, want the task with its calendar date", resp)
	}
}

func TestHandleGetTasks_RejectsUnknownBucket(t *testing.T) {
	svc := &fakeTaskService{
		listFn: func(context.Context, string, taskfilter.Filter) ([]models.Task, error) {
			t.Fatal("ListTasks() should not be called for an invalid bucket")
			return nil, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks?due=fortnight", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("GET /tasks status=%d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleGetTasks_StaleSetServedWithErrorIndicator(t *testing.T) {
	svc := &fakeTaskService{
		listFn: func(context.Context, string, taskfilter.Filter) ([]models.Task, error) {
			return []models.Task{{ID: "1", Title: "t", Status: models.StatusToDo}},
				taskstore.ErrStoreReadFailed
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /tasks status=%d, want %d", rr.Code, http.StatusOK)
	}

	var resp staleTasksResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if !resp.Stale {
		t.Fatal("response stale=false, want true")
	}
	if resp.Error == "" {
		t.Fatal("response carries no error indicator")
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != "1" {
		t.Fatalf("response tasks=%+v, want the last known-good set", resp.Tasks)
	}
}

func TestHandleGetTasks_RefreshFailureWithoutFallback(t *testing.T) {
	svc := &fakeTaskService{
		listFn: func(context.Context, string, taskfilter.Filter) ([]models.Task, error) {
			return nil, taskstore.ErrStoreReadFailed
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks", nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("GET /tasks status=%d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestHandleCreateTask(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(_ context.Context, userID string, params services.CreateTaskParams) (*models.Task, error) {
			return &models.Task{
				ID:      "task-1",
				UserID:  userID,
				Title:   params.Title,
				DueDate: params.DueDate,
				Status:  models.StatusToDo,
			}, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/tasks", gin.H{
		"title": "buy milk",
		"date":  "2024-06-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /tasks status=%d, want %d", rr.Code, http.StatusCreated)
	}

	var resp getTaskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if resp.ID != "task-1" || resp.Date != "2024-06-01" {
		t.Fatalf("response=%+v, want id task-1 with date 2024-06-01", resp)
	}
}

func TestHandleCreateTask_InvalidDate(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(context.Context, string, services.CreateTaskParams) (*models.Task, error) {
			t.Fatal("CreateTask() should not be called for an invalid date")
			return nil, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/tasks", gin.H{
		"title": "buy milk",
		"date":  "June 1st",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("POST /tasks status=%d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleCreateTask_AttachmentTooLarge(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(context.Context, string, services.CreateTaskParams) (*models.Task, error) {
			return nil, services.ErrAttachmentTooLarge
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/tasks", gin.H{
		"title": "buy milk",
		"date":  "2024-06-01",
		"attachment": gin.H{
			"name": "huge.bin",
			"data": []byte{1, 2, 3},
		},
	})
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("POST /tasks status=%d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandleSetTaskStatus(t *testing.T) {
	svc := &fakeTaskService{
		setStatusFn: func(_ context.Context, userID, taskID, status string) (*models.Task, error) {
			return &models.Task{ID: taskID, UserID: userID, Status: status}, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/tasks/1/status?status=Completed", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("PATCH /tasks/1/status status=%d, want %d", rr.Code, http.StatusOK)
	}

	var resp getTaskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if resp.Status != models.StatusCompleted {
		t.Fatalf("response status=%s, want %s", resp.Status, models.StatusCompleted)
	}
}

func TestHandleSetTaskStatus_NotFound(t *testing.T) {
	svc := &fakeTaskService{
		setStatusFn: func(context.Context, string, string, string) (*models.Task, error) {
			return nil, taskstore.ErrTaskNotFound
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/tasks/ghost/status?status=Completed", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("PATCH status=%d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandleSetTasksStatus(t *testing.T) {
	svc := &fakeTaskService{
		bulkMoveFn: func(_ context.Context, userID string, taskIDs []string, status string) ([]models.Task, error) {
			moved := make([]models.Task, len(taskIDs))
			for i, id := range taskIDs {
				moved[i] = models.Task{ID: id, UserID: userID, Status: status}
			}
			return moved, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodPatch, "/api/v1/tasks/status", gin.H{
		"ids":    []string{"1", "2"},
		"status": models.StatusInProgress,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("PATCH /tasks/status status=%d, want %d", rr.Code, http.StatusOK)
	}

	var resp []getTaskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("response len=%d, want 2", len(resp))
	}
}

func TestHandleDeleteTask(t *testing.T) {
	deleted := ""
	svc := &fakeTaskService{
		deleteFn: func(_ context.Context, _, taskID string) error {
			deleted = taskID
			return nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodDelete, "/api/v1/tasks/1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE /tasks/1 status=%d, want %d", rr.Code, http.StatusNoContent)
	}
	if deleted != "1" {
		t.Fatalf("deleted=%q, want 1", deleted)
	}
}

func TestHandleDeleteTasks(t *testing.T) {
	var deleted []string
	svc := &fakeTaskService{
		bulkDelFn: func(_ context.Context, _ string, taskIDs []string) error {
			deleted = taskIDs
			return nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodDelete, "/api/v1/tasks", gin.H{"ids": []string{"1", "2"}})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE /tasks status=%d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted=%v, want two ids", deleted)
	}
}

func TestHandleGetBoard(t *testing.T) {
	svc := &fakeTaskService{
		boardFn: func(context.Context, string, taskfilter.Filter) (map[string][]models.Task, error) {
			return map[string][]models.Task{
				models.StatusToDo:       {{ID: "1", Status: models.StatusToDo}},
				models.StatusInProgress: {},
				models.StatusCompleted:  {},
			}, nil
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks/board", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /tasks/board status=%d, want %d", rr.Code, http.StatusOK)
	}

	var resp map[string][]getTaskResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if len(resp) != 3 {
		t.Fatalf("board has %d lanes, want 3", len(resp))
	}
	if len(resp[models.StatusToDo]) != 1 {
		t.Fatalf("To-Do lane=%+v, want one task", resp[models.StatusToDo])
	}
}

func TestHandleGetBoard_StaleLanesServedWithErrorIndicator(t *testing.T) {
	svc := &fakeTaskService{
		boardFn: func(context.Context, string, taskfilter.Filter) (map[string][]models.Task, error) {
			return map[string][]models.Task{
				models.StatusToDo:       {{ID: "1", Status: models.StatusToDo}},
				models.StatusInProgress: {},
				models.StatusCompleted:  {},
			}, taskstore.ErrStoreReadFailed
		},
	}
	router := newTestRouter(t, svc)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/tasks/board", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /tasks/board status=%d, want %d", rr.Code, http.StatusOK)
	}

	var resp staleBoardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response err=%v", err)
	}
	if !resp.Stale || resp.Error == "" {
		t.Fatalf("response stale=%v error=%q, want a marked stale board", resp.Stale, resp.Error)
	}
	if len(resp.Lanes[models.StatusToDo]) != 1 {
		t.Fatalf("To-Do lane=%+v, want the last known-good task", resp.Lanes[models.StatusToDo])
	}
}
