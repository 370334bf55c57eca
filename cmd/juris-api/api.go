// Package main provides the Juris API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/juris/pkg/cmd"
	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	engine   *cmd.Engine
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, engine *cmd.Engine) *API {
	return &API{
		logger:   logger,
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(web.Dependencies{
		Logger:    a.logger,
		Workflows: a.engine.Workflows,
		Rules:     a.engine.Rules,
		Executor:  a.engine.Executor,
		Engine:    a.engine.RuleEngine,
		Templates: a.engine.Persistence.TemplateRepository(),
		Analyzer:  documents.NewAnalyzer(),
		Registry:  a.engine.Registry,
		Validator: a.validate,
	})

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Juris API")
	})

	handlers.Routes(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
