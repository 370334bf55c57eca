package web

import (
	"github.com/dukex/juris/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	list, err := h.rules.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(list)
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	rule, err := h.rules.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	var rule models.DocumentProcessingRule
	if err := c.Bind().JSON(&rule); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.rules.Create(c.Context(), &rule)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateRule replaces the rule definition.
func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	var rule models.DocumentProcessingRule
	if err := c.Bind().JSON(&rule); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.rules.Update(c.Context(), c.Params("id"), &rule)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRule(c fiber.Ctx) error {
	if err := h.rules.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ProcessDocument runs the document rules for the uploaded text.
func (h *APIHandlers) ProcessDocument(c fiber.Ctx) error {
	var req ProcessDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.Process(c.Context(), req.Text, req.DocumentType, req.Metadata)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) AnalyzeDocument(c fiber.Ctx) error {
	var req AnalyzeDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.analyzer.AnalyzeDocument(c.Context(), req.Text, req.ReviewType)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(result)
}
