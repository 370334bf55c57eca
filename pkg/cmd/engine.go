package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/metrics"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/otelhelper"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
	"github.com/dukex/juris/pkg/rules"
	"github.com/dukex/juris/pkg/services"
	"github.com/dukex/juris/pkg/workflow"
)

// Engine is the wired set of components both binaries run on.
type Engine struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Notifier    *notification.AsyncNotifier
	Registry    *registry.Registry
	Workflows   *services.Workflow
	Rules       *services.Rules
	Executor    *workflow.Executor
	RuleEngine  *rules.Engine

	closers []func(ctx context.Context) error
}

// NewEngine opens the store and the event bus and builds the engine components.
func NewEngine(ctx context.Context, logger *slog.Logger, serviceName string, cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics.Init()

	e := &Engine{}

	p, err := NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	e.Persistence = p
	e.closers = append(e.closers, p.Close)

	bus, err := NewEventBus(cfg.EventBus, serviceName, cfg.KafkaBrokers, logger)
	if err != nil {
		_ = e.Close(ctx)

		return nil, err
	}

	e.EventBus = bus
	e.closers = append(e.closers, func(context.Context) error { return bus.Close() })

	e.Notifier = notification.NewAsyncNotifier(logger,
		notification.Fanout{notification.NewLogNotifier(logger), notification.NewEventBusNotifier(bus)},
		cfg.NotificationQueueSize,
	)
	e.closers = append(e.closers, func(context.Context) error { return e.Notifier.Close() })

	tracer := otelhelper.NoopTracer()

	if cfg.OTelEnabled {
		t, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			_ = e.Close(ctx)

			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
		e.closers = append(e.closers, shutdown)
	}

	e.Registry = NewRegistry(logger, p, e.Notifier)
	e.Workflows = services.NewWorkflow(logger, p, e.Registry)
	e.Rules = services.NewRules(logger, p.RuleRepository())

	e.Executor = workflow.NewExecutor(workflow.Config{
		Logger:     logger,
		Workflows:  e.Workflows,
		Executions: e.Workflows,
		Registry:   e.Registry,
		Tasks:      p.TaskRepository(),
		Notifier:   e.Notifier,
		Publisher:  bus,
		Tracer:     tracer,
		MaxSteps:   cfg.MaxSteps,
	})

	e.RuleEngine = rules.NewEngine(logger, e.Rules, e.Notifier, bus)

	return e, nil
}

// Close releases the components in reverse order of creation.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error

	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	e.closers = nil

	return errors.Join(errs...)
}
