package web

import (
	"errors"

	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/rules"
	"github.com/dukex/juris/pkg/services"
	"github.com/dukex/juris/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError maps service, engine and store errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return problem(c, fiber.StatusBadRequest, "validation_error", err.Error())

	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, workflow.ErrInvalidArgument),
		errors.Is(err, rules.ErrMissingDocumentType):
		return problem(c, fiber.StatusBadRequest, "bad_request", err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case errors.Is(err, workflow.ErrTaskAlreadyDecided):
		return problem(c, fiber.StatusConflict, "task_already_decided", err.Error())

	case errors.Is(err, workflow.ErrExecutionNotRunning):
		return problem(c, fiber.StatusConflict, "execution_not_running", err.Error())

	case errors.Is(err, workflow.ErrWorkflowDisabled):
		return problem(c, fiber.StatusUnprocessableEntity, "workflow_disabled", err.Error())

	case workflow.IsNotFound(err), persistence.IsNotFound(err):
		return problem(c, fiber.StatusNotFound, "not_found", err.Error())

	default:
		return internalError(c, err)
	}
}
