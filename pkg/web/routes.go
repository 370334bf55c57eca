package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes mounts every endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	router.Get("/step-types", h.GetStepTypes)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/execute", h.ExecuteWorkflow)
	w.Get("/:id/executions", h.GetWorkflowExecutions)

	e := router.Group("/executions")
	e.Get("/:id", h.GetExecution)
	e.Post("/:id/cancel", h.CancelExecution)
	e.Get("/:id/tasks", h.GetExecutionTasks)

	t := router.Group("/tasks")
	t.Get("/", h.GetPendingTasks)
	t.Get("/:id", h.GetTask)
	t.Post("/:id/respond", h.RespondTask)

	r := router.Group("/rules")
	r.Get("/", h.GetRules)
	r.Post("/", h.CreateRule)
	r.Get("/:id", h.GetRule)
	r.Put("/:id", h.UpdateRule)
	r.Delete("/:id", h.DeleteRule)

	d := router.Group("/documents")
	d.Post("/process", h.ProcessDocument)
	d.Post("/analyze", h.AnalyzeDocument)

	tpl := router.Group("/templates")
	tpl.Post("/", h.CreateTemplate)
	tpl.Get("/:id", h.GetTemplate)
}
