// Package notification delivers workflow notifications. Delivery is fire-and-forget for the
// engine: callers log Notify errors and carry on.
package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/juris/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// Noop discards every notification.
type Noop struct{}

func (Noop) Notify(context.Context, models.Notification) error {
	return nil
}

// LogNotifier writes notifications to the log. It is the default sink of the API server.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notification")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification models.Notification) error {
	n.logger.InfoContext(ctx, notification.Title,
		"message", notification.Message,
		"type", notification.Type,
		"recipients", notification.Recipients,
		"priority", notification.Priority,
	)

	return nil
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (r *Recorder) Notify(_ context.Context, notification models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, notification)

	return nil
}

// Notifications returns a copy of what was recorded so far.
func (r *Recorder) Notifications() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.Notification(nil), r.notifications...)
}

// Fanout delivers to every notifier and returns the first error.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, notification models.Notification) error {
	var first error

	for _, notifier := range f {
		err := notifier.Notify(ctx, notification)
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}
