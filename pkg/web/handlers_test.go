package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scriptflow/scriptflow/pkg/checkpoint/file"
	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/mocks"
	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
	"github.com/scriptflow/scriptflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *engine.Service, *mocks.MockEventBus) {
	t.Helper()

	bus := &mocks.MockEventBus{}
	store := file.NewStore(t.TempDir())
	service := engine.NewService(store, bus, nil, supervisor.New(supervisor.DefaultMaxRetries), slog.Default())
	handlers := web.NewAPIHandlers(service, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	tasks := app.Group("/tasks")
	tasks.Post("/", handlers.SubmitTask)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Post("/:id/resume", handlers.ResumeTask)
	tasks.Post("/:id/cancel", handlers.CancelTask)

	app.Get("/health", handlers.HealthCheck)

	return app, service, bus
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	var (
		payload []byte
		err     error
	)

	if str, ok := body.(string); ok {
		payload = []byte(str)
	} else if body != nil {
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestAPIHandlers_SubmitTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful submission",
			requestBody: web.SubmitTaskRequest{
				Platform:    "auto",
				Instruction: "Order a pizza from the demo shop",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing platform",
			requestBody: web.SubmitTaskRequest{
				Instruction: "Order a pizza",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown platform",
			requestBody: web.SubmitTaskRequest{
				Platform:    "desktop",
				Instruction: "Order a pizza",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "neither instruction nor document",
			requestBody: web.SubmitTaskRequest{
				Platform: "web",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, bus := setupTestApp(t)
			bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			resp := postJSON(t, app, "/tasks/", tt.requestBody)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)

				var view models.TaskView
				require.NoError(t, json.Unmarshal(body, &view))
				assert.NotEmpty(t, view.TaskID)
				assert.Equal(t, models.TaskStatusInitiated, view.Status)
			}
		})
	}
}

func TestAPIHandlers_SubmitTask_DuplicateConflicts(t *testing.T) {
	app, _, bus := setupTestApp(t)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body := web.SubmitTaskRequest{TaskID: "task-dup", Platform: "web", Instruction: "order"}

	resp := postJSON(t, app, "/tasks/", body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/tasks/", body)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_GetTask(t *testing.T) {
	app, service, bus := setupTestApp(t)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	view, err := service.Submit(t.Context(), engine.SubmitRequest{
		TaskID:      "task-get",
		Platform:    models.PlatformWeb,
		Instruction: "order a pizza",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+view.TaskID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var got models.TaskView
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "task-get", got.TaskID)
	assert.Equal(t, models.TaskStatusInitiated, got.Status)
}

func TestAPIHandlers_GetTask_NotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ResumeAndCancelForwardToWorkers(t *testing.T) {
	app, service, bus := setupTestApp(t)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := service.Submit(t.Context(), engine.SubmitRequest{
		TaskID:      "task-fwd",
		Platform:    models.PlatformWeb,
		Instruction: "order a pizza",
	})
	require.NoError(t, err)

	resp := postJSON(t, app, "/tasks/task-fwd/resume", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postJSON(t, app, "/tasks/task-fwd/cancel", web.CancelTaskRequest{Reason: "operator request"})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postJSON(t, app, "/tasks/missing/resume", nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
