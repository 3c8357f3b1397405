package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/models"
)

// APIHandlers serves the task REST surface. Submit and Status act directly
// on the checkpoint store; Resume and Cancel are forwarded to workers over
// the event bus so the API process never drives phase execution.
type APIHandlers struct {
	service   *engine.Service
	validator *validator.Validate
}

func NewAPIHandlers(service *engine.Service, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		service:   service,
		validator: validator,
	}
}

func (h *APIHandlers) SubmitTask(c fiber.Ctx) error {
	var req SubmitTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	view, err := h.service.Submit(c.Context(), engine.SubmitRequest{
		TaskID:      req.TaskID,
		Platform:    models.Platform(req.Platform),
		Instruction: req.Instruction,
		Document:    req.Document,
		Parameters:  req.Parameters,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	view, err := h.service.Status(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) ResumeTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	if err := h.service.RequestResume(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_id": id,
		"status":  "resume_requested",
	})
}

func (h *APIHandlers) CancelTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	var req CancelTaskRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.service.RequestCancel(c.Context(), id, req.Reason); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_id": id,
		"status":  "cancel_requested",
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "ScriptFlow API is healthy"
	httpStatus := http.StatusOK

	if err := h.service.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "ScriptFlow API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
