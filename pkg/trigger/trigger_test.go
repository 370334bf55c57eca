package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/juris/pkg/channels/gochannel"
	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/mocks"
	"github.com/dukex/juris/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	mu        sync.Mutex
	workflows []*models.WorkflowDefinition
	err       error
}

func (l *staticLister) set(workflows ...*models.WorkflowDefinition) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.workflows = workflows
}

func (l *staticLister) ListByTrigger(_ context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}

	var matched []*models.WorkflowDefinition

	for _, workflow := range l.workflows {
		if workflow.Enabled && workflow.TriggerType == triggerType {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

type execCall struct {
	workflowID string
	wctx       map[string]any
	initiator  string
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []execCall
	fail  map[string]error
}

func (e *recordingExecutor) Execute(_ context.Context, workflowID string, wctx map[string]any, initiatorID string) (*models.WorkflowExecution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, execCall{workflowID: workflowID, wctx: wctx, initiator: initiatorID})

	if err := e.fail[workflowID]; err != nil {
		return nil, err
	}

	return &models.WorkflowExecution{
		ID:         "exec-" + workflowID,
		WorkflowID: workflowID,
		Status:     models.ExecutionStatusCompleted,
		Context:    wctx,
	}, nil
}

func (e *recordingExecutor) Calls() []execCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]execCall(nil), e.calls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func scheduled(id, expr string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          id,
		Name:        "Relatório de prazos " + id,
		TriggerType: models.TriggerTypeScheduled,
		Trigger:     &models.TriggerConfig{Cron: expr},
		Enabled:     true,
	}
}

func onEvent(id, name string, conditions map[string]any) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:          id,
		Name:        "Onboarding " + id,
		TriggerType: models.TriggerTypeEvent,
		Trigger:     &models.TriggerConfig{Event: name, Conditions: conditions},
		Enabled:     true,
	}
}

func TestScheduler_ReloadSyncsEntries(t *testing.T) {
	lister := &staticLister{}
	lister.set(
		scheduled("daily", "0 9 * * *"),
		scheduled("broken", "every day"),
		&models.WorkflowDefinition{ID: "manual", TriggerType: models.TriggerTypeManual, Enabled: true},
	)

	scheduler := NewScheduler(testLogger(), lister, &recordingExecutor{})

	require.NoError(t, scheduler.Reload(t.Context()))
	assert.ElementsMatch(t, []string{"daily"}, scheduler.Scheduled())

	next, ok := scheduler.Next("daily")
	require.True(t, ok)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())

	lister.set(scheduled("daily", "30 18 * * 1-5"), scheduled("weekly", "0 8 * * 1"))
	require.NoError(t, scheduler.Reload(t.Context()))
	assert.ElementsMatch(t, []string{"daily", "weekly"}, scheduler.Scheduled())

	next, ok = scheduler.Next("daily")
	require.True(t, ok)
	assert.Equal(t, 18, next.Hour())
	assert.Equal(t, 30, next.Minute())

	lister.set(scheduled("weekly", "0 8 * * 1"))
	require.NoError(t, scheduler.Reload(t.Context()))
	assert.ElementsMatch(t, []string{"weekly"}, scheduler.Scheduled())

	_, ok = scheduler.Next("daily")
	assert.False(t, ok)
}

func TestScheduler_ReloadListError(t *testing.T) {
	lister := &staticLister{err: errors.New("connection refused")}
	scheduler := NewScheduler(testLogger(), lister, &recordingExecutor{})

	err := scheduler.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestScheduler_RunsDueWorkflows(t *testing.T) {
	lister := &staticLister{}
	lister.set(scheduled("every-second", "@every 1s"))

	executor := &recordingExecutor{}
	scheduler := NewScheduler(testLogger(), lister, executor)

	require.NoError(t, scheduler.Start(t.Context()))
	t.Cleanup(scheduler.Stop)

	require.Eventually(t, func() bool {
		return len(executor.Calls()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	call := executor.Calls()[0]
	assert.Equal(t, "every-second", call.workflowID)
	assert.Equal(t, SchedulerInitiator, call.initiator)
	assert.Contains(t, call.wctx, "scheduled_at")
}

func TestEventDispatcher_MatchesNameAndConditions(t *testing.T) {
	lister := &staticLister{}
	lister.set(
		onEvent("any-client", "client.created", nil),
		onEvent("labor-client", "client.created", map[string]any{"area": "trabalhista"}),
		onEvent("tax-client", "client.created", map[string]any{"area": "tributário"}),
		onEvent("hearing", "hearing.scheduled", nil),
	)

	executor := &recordingExecutor{}
	dispatcher := NewEventDispatcher(testLogger(), lister, executor)

	payload := map[string]any{"clientId": "c1", "area": "trabalhista"}

	executions, err := dispatcher.Dispatch(t.Context(), "client.created", payload)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	calls := executor.Calls()
	require.Len(t, calls, 2)

	started := []string{calls[0].workflowID, calls[1].workflowID}
	assert.ElementsMatch(t, []string{"any-client", "labor-client"}, started)

	for _, call := range calls {
		assert.Equal(t, EventInitiator, call.initiator)
		assert.Equal(t, "client.created", call.wctx["event"])
		assert.Equal(t, "c1", call.wctx["clientId"])
	}

	assert.NotContains(t, payload, "event")
}

func TestEventDispatcher_CollectsFailures(t *testing.T) {
	lister := &staticLister{}
	lister.set(onEvent("ok", "deadline.near", nil), onEvent("broken", "deadline.near", nil))

	executor := &recordingExecutor{fail: map[string]error{"broken": errors.New("workflow disabled")}}
	dispatcher := NewEventDispatcher(testLogger(), lister, executor)

	executions, err := dispatcher.Dispatch(t.Context(), "deadline.near", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, executions, 1)
	assert.Equal(t, "ok", executions[0].WorkflowID)

	_, err = dispatcher.Dispatch(t.Context(), "", nil)
	require.Error(t, err)
}

func TestEventDispatcher_ConsumesTriggerEvents(t *testing.T) {
	logger := testLogger()

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	lister := &staticLister{}
	lister.set(onEvent("welcome", "client.created", nil))

	executor := &recordingExecutor{}
	dispatcher := NewEventDispatcher(logger, lister, executor)
	require.NoError(t, dispatcher.Register(bus))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))
	require.NoError(t, bus.Publish(ctx, "client.created", events.NewTrigger("client.created", map[string]any{"clientId": "c9"})))

	require.Eventually(t, func() bool {
		return len(executor.Calls()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	call := executor.Calls()[0]
	assert.Equal(t, "welcome", call.workflowID)
	assert.Equal(t, "c9", call.wctx["clientId"])
}

func TestEventDispatcher_RegisterHandlesTriggerEvents(t *testing.T) {
	lister := &staticLister{}
	lister.set(onEvent("wf-upload", "document.uploaded", nil))

	executor := &recordingExecutor{}
	dispatcher := NewEventDispatcher(testLogger(), lister, executor)

	var handler eventbus.EventHandler

	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.TriggerEvent, mock.Anything).
		Run(func(args mock.Arguments) { handler = args.Get(1).(eventbus.EventHandler) }).
		Return(nil).Once()

	require.NoError(t, dispatcher.Register(bus))
	bus.AssertExpectations(t)
	require.NotNil(t, handler)

	require.Error(t, handler(t.Context(), "not a trigger"))

	trigger := events.NewTrigger("document.uploaded", map[string]any{"name": "inicial.pdf"})
	require.NoError(t, handler(t.Context(), &trigger))

	calls := executor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "wf-upload", calls[0].workflowID)
	assert.Equal(t, EventInitiator, calls[0].initiator)
	assert.Equal(t, "inicial.pdf", calls[0].wctx["name"])
}
