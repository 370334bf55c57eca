package eventbus_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/juris/pkg/channels/gochannel"
	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newBus(t)
	received := make(chan *events.Trigger, 1)

	require.NoError(t, bus.Handle(events.TriggerEvent, func(_ context.Context, event any) error {
		received <- event.(*events.Trigger)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))
	require.NoError(t, bus.Publish(ctx, "client.created", events.NewTrigger("client.created", map[string]any{"id": "c1"})))

	select {
	case trigger := <-received:
		assert.Equal(t, "client.created", trigger.Name)
		assert.Equal(t, "c1", trigger.Payload["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("trigger event was not delivered")
	}
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := eventbus.Decode("nope", []byte(`{}`))
	assert.Error(t, err)

	event, err := eventbus.Decode(events.DocumentProcessedEvent, []byte(`{"document_type":"pdf","applied_rules":["r1"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, event.(*events.DocumentProcessed).AppliedRules)
}

func TestGenerateID(t *testing.T) {
	bus := newBus(t)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
