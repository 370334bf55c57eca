package notification

import (
	"context"
	"fmt"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/models"
)

// EventBusNotifier publishes notification.requested events for an external delivery service.
type EventBusNotifier struct {
	publisher eventbus.EventPublisher
}

func NewEventBusNotifier(publisher eventbus.EventPublisher) *EventBusNotifier {
	return &EventBusNotifier{publisher: publisher}
}

func (n *EventBusNotifier) Notify(ctx context.Context, notification models.Notification) error {
	event := events.NotificationRequested{
		BaseEvent:    events.NewBaseEvent(events.NotificationRequestedEvent, ""),
		Notification: notification,
	}

	if workflowID, ok := notification.Data["workflowId"].(string); ok {
		event.WorkflowID = workflowID
	}

	err := n.publisher.Publish(ctx, event.ID, event)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
