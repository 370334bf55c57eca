// Package web provides the REST API over the workflow registry, the executor, the approval
// gate and the document rule engine.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
	"github.com/dukex/juris/pkg/rules"
	"github.com/dukex/juris/pkg/services"
	"github.com/dukex/juris/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type APIHandlers struct {
	logger    *slog.Logger
	workflows *services.Workflow
	rules     *services.Rules
	executor  *workflow.Executor
	engine    *rules.Engine
	templates persistence.TemplateRepository
	analyzer  *documents.Analyzer
	registry  *registry.Registry
	validator *validator.Validate
}

type Dependencies struct {
	Logger    *slog.Logger
	Workflows *services.Workflow
	Rules     *services.Rules
	Executor  *workflow.Executor
	Engine    *rules.Engine
	Templates persistence.TemplateRepository
	Analyzer  *documents.Analyzer
	Registry  *registry.Registry
	Validator *validator.Validate
}

func NewAPIHandlers(deps Dependencies) *APIHandlers {
	v := deps.Validator
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}

	return &APIHandlers{
		logger:    deps.Logger.With("module", "api"),
		workflows: deps.Workflows,
		rules:     deps.Rules,
		executor:  deps.Executor,
		engine:    deps.Engine,
		templates: deps.Templates,
		analyzer:  deps.Analyzer,
		registry:  deps.Registry,
		validator: v,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflows.HealthCheck(c.Context())

	stepTypes := len(h.registry.Descriptors())
	regOk := stepTypes > 0

	status := "unhealthy"
	message := "Juris API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Juris API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   strconv.Itoa(stepTypes) + " step types registered",
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// GetStepTypes lists the registered step types with their parameter schemas.
func (h *APIHandlers) GetStepTypes(c fiber.Ctx) error {
	descriptors := h.registry.Descriptors()

	stepTypes := make([]fiber.Map, 0, len(descriptors))
	for _, d := range descriptors {
		stepTypes = append(stepTypes, fiber.Map{
			"type":        d.Type(),
			"name":        d.Name(),
			"description": d.Description(),
			"schema":      d.Schema(),
		})
	}

	return c.JSON(stepTypes)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	var (
		list []*models.WorkflowDefinition
		err  error
	)

	if trigger := c.Query("trigger_type"); trigger != "" {
		list, err = h.workflows.ListByTrigger(c.Context(), models.TriggerType(trigger))
	} else {
		list, err = h.workflows.List(c.Context())
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   list,
		"total_count": len(list),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	found, err := h.workflows.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var definition models.WorkflowDefinition
	if err := c.Bind().JSON(&definition); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.workflows.Create(c.Context(), &definition)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var patch models.WorkflowPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.workflows.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflows.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow runs the workflow until it completes, fails or waits for approval. A run
// that failed still answers 201 with the failed execution.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executor.Execute(c.Context(), c.Params("id"), req.Context, req.InitiatorID)
	if execution == nil {
		return handleServiceError(c, err)
	}

	if err != nil {
		h.logger.WarnContext(c.Context(), "Workflow execution failed",
			"workflow_id", execution.WorkflowID, "execution_id", execution.ID, "error", err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")

	if _, err := h.workflows.Get(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	executions, err := h.workflows.Executions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executor.Execution(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	var req CancelExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")

	if err := h.executor.CancelExecution(c.Context(), id, req.UserID); err != nil {
		return handleServiceError(c, err)
	}

	execution, err := h.executor.Execution(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) GetExecutionTasks(c fiber.Ctx) error {
	id := c.Params("id")

	if _, err := h.executor.Execution(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	tasks, err := h.executor.Approvals().Tasks(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tasks)
}

// GetPendingTasks lists the approvals waiting on ?assignee=.
func (h *APIHandlers) GetPendingTasks(c fiber.Ctx) error {
	assignee := c.Query("assignee")
	if assignee == "" {
		return badRequest(c, "assignee query parameter is required")
	}

	tasks, err := h.executor.Approvals().PendingTasks(c.Context(), assignee)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tasks)
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	task, err := h.executor.Approvals().Task(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

// RespondTask records a decision and returns the task with the state of its execution.
func (h *APIHandlers) RespondTask(c fiber.Ctx) error {
	var req RespondTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id := c.Params("id")
	gate := h.executor.Approvals()

	if err := gate.ProcessApprovalResponse(c.Context(), id, *req.Approved, req.Comments, req.UserID); err != nil {
		return handleServiceError(c, err)
	}

	task, err := gate.Task(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	execution, err := h.executor.Execution(c.Context(), task.ExecutionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"task":      task,
		"execution": execution,
	})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.templates.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	template := &models.DocumentTemplate{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Category:  req.Category,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.templates.Save(c.Context(), template); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}
