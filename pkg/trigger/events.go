package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/models"
)

// EventDispatcher starts the event workflows listening for a named domain event.
type EventDispatcher struct {
	logger    *slog.Logger
	workflows WorkflowLister
	executor  Executor
}

func NewEventDispatcher(logger *slog.Logger, workflows WorkflowLister, executor Executor) *EventDispatcher {
	return &EventDispatcher{
		logger:    logger.With("module", "event_dispatcher"),
		workflows: workflows,
		executor:  executor,
	}
}

// Dispatch executes every enabled event workflow whose event name is name and whose trigger
// conditions equal the payload values. The payload becomes the execution context, with the
// event name under "event".
func (d *EventDispatcher) Dispatch(ctx context.Context, name string, payload map[string]any) ([]*models.WorkflowExecution, error) {
	if name == "" {
		return nil, errors.New("event name is required")
	}

	workflows, err := d.workflows.ListByTrigger(ctx, models.TriggerTypeEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to list event workflows: %w", err)
	}

	var (
		executions []*models.WorkflowExecution
		errs       []error
	)

	for _, workflow := range workflows {
		if !listensTo(workflow, name, payload) {
			continue
		}

		wctx := maps.Clone(payload)
		if wctx == nil {
			wctx = make(map[string]any, 1)
		}

		wctx["event"] = name

		execution, err := d.executor.Execute(ctx, workflow.ID, wctx, EventInitiator)
		if err != nil {
			d.logger.ErrorContext(ctx, "Event execution failed", "event", name, "workflow_id", workflow.ID, "error", err)
			errs = append(errs, fmt.Errorf("workflow %s: %w", workflow.ID, err))

			continue
		}

		executions = append(executions, execution)
	}

	d.logger.InfoContext(ctx, "Event dispatched", "event", name, "executions", len(executions))

	return executions, errors.Join(errs...)
}

// Register subscribes the dispatcher to trigger.event messages.
func (d *EventDispatcher) Register(sub eventbus.EventSubscriber) error {
	return sub.Handle(events.TriggerEvent, func(ctx context.Context, event any) error {
		trigger, ok := event.(*events.Trigger)
		if !ok {
			return fmt.Errorf("unexpected event %T for %s", event, events.TriggerEvent)
		}

		_, err := d.Dispatch(ctx, trigger.Name, trigger.Payload)

		return err
	})
}

func listensTo(workflow *models.WorkflowDefinition, name string, payload map[string]any) bool {
	if workflow.Trigger == nil || workflow.Trigger.Event != name {
		return false
	}

	for key, expected := range workflow.Trigger.Conditions {
		value, found := models.ResolvePath(payload, key)
		if !models.Compare(models.OperatorEquals, value, found, expected, false) {
			return false
		}
	}

	return true
}
