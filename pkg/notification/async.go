package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/models"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notifier is closed")
)

const deliveryTimeout = 10 * time.Second

// AsyncNotifier is a bounded outbound queue in front of another Notifier. A single worker
// delivers in order; notifications arriving while the queue is full are dropped.
type AsyncNotifier struct {
	next   Notifier
	logger *slog.Logger
	queue  chan models.Notification
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncNotifier(logger *slog.Logger, next Notifier, size int) *AsyncNotifier {
	if size <= 0 {
		size = 1
	}

	n := &AsyncNotifier{
		next:   next,
		logger: logger.With("module", "notification"),
		queue:  make(chan models.Notification, size),
		done:   make(chan struct{}),
	}

	go n.run()

	return n
}

func (n *AsyncNotifier) Notify(ctx context.Context, notification models.Notification) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrClosed
	}

	select {
	case n.queue <- notification:
		return nil
	default:
		n.logger.WarnContext(ctx, "dropping notification, queue full", "title", notification.Title)

		return ErrQueueFull
	}
}

func (n *AsyncNotifier) run() {
	defer close(n.done)

	for notification := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)

		err := n.next.Notify(ctx, notification)
		if err != nil {
			n.logger.ErrorContext(ctx, "failed to deliver notification", "title", notification.Title, "error", err)
		}

		cancel()
	}
}

// Close stops accepting notifications and waits until the queue is drained.
func (n *AsyncNotifier) Close() error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	<-n.done

	return nil
}
