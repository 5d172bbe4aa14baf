package web

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/reliefops/aidflow/pkg/services"
)

type APIHandlers struct {
	executionService *services.Execution
	templateService  *services.Template
	validator        *validator.Validate
}

func NewAPIHandlers(
	executionService *services.Execution,
	templateService *services.Template,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		executionService: executionService,
		templateService:  templateService,
		validator:        validator,
	}
}

// Execute runs the workflow for a relief request synchronously and returns
// the finalized record. A failed or errored run is still HTTP 200: the run
// itself succeeded as an API operation and the record tells the story.
func (h *APIHandlers) Execute(c fiber.Ctx) error {
	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.executionService.Execute(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformExecutionResponse(result))
}

// ExecuteAsync enqueues an execution on the event bus and returns 202.
func (h *APIHandlers) ExecuteAsync(c fiber.Ctx) error {
	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	requestID, err := h.executionService.Request(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(AsyncAcceptedResponse{
		RequestID: requestID,
		Status:    "accepted",
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	result, err := h.executionService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformExecutionResponse(result))
}

// GetRequestExecutions lists every execution recorded for a relief request.
func (h *APIHandlers) GetRequestExecutions(c fiber.Ctx) error {
	requestID := c.Params("id")
	if requestID == "" {
		return badRequest(c, "Request ID is required")
	}

	results, err := h.executionService.ListByRequest(c.Context(), requestID)
	if err != nil {
		return handleServiceError(c, err)
	}

	responses := make([]ExecutionResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, TransformExecutionResponse(result))
	}

	return c.JSON(fiber.Map{
		"request_id": requestID,
		"executions": responses,
	})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates, err := h.templateService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"templates": templates,
		"count":     len(templates),
	})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Template name is required")
	}

	template, err := h.templateService.Get(c.Context(), name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req TemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.templateService.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(template)
}

func (h *APIHandlers) UpdateTemplate(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Template name is required")
	}

	var req TemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if req.Name != "" && req.Name != name {
		return badRequest(c, "Template name in body does not match URL")
	}

	req.Name = name
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	template, err := h.templateService.Update(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

// SetTemplateActive flips the activation flag; body is ?active=true|false.
func (h *APIHandlers) SetTemplateActive(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Template name is required")
	}

	active, err := strconv.ParseBool(c.Query("active", "true"))
	if err != nil {
		return badRequest(c, "Invalid active flag: "+err.Error())
	}

	template, err := h.templateService.SetActive(c.Context(), name, active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Template name is required")
	}

	if err := h.templateService.Delete(c.Context(), name); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.executionService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if healthy {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"persistence": message,
		},
	})
}
