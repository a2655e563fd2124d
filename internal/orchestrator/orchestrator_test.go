package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuroweave/orchestrator/pkg/types"
)

// fakeClock lets tests drive orchestrator time deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestOrchestrator(t *testing.T, config *Config) (*Orchestrator, *fakeClock) {
	t.Helper()

	if config == nil {
		config = DefaultConfig()
	}
	// Keep the background sweep out of the way; tests call Sweep directly.
	config.SweepInterval = time.Hour

	orch, err := New(config, nil)
	require.NoError(t, err)

	clock := &fakeClock{now: t0}
	orch.now = clock.Now

	require.NoError(t, orch.Start(context.Background()))
	t.Cleanup(func() { _ = orch.Stop(context.Background()) })

	return orch, clock
}

func submission(n int) types.TaskSubmission {
	chunks := make([]json.RawMessage, n)
	for i := range chunks {
		chunks[i] = json.RawMessage(fmt.Sprintf(`{"chunk":%d}`, i))
	}
	return types.TaskSubmission{Name: "simulate", DataInput: chunks}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.LeaseDuration = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxAttempts = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.QueuePolicy = "lifo"
	assert.Error(t, bad.Validate())

	_, err := New(bad, nil)
	assert.Error(t, err)
}

func TestSubmitTaskRequiresRunning(t *testing.T) {
	orch, err := New(nil, nil)
	require.NoError(t, err)

	_, err = orch.SubmitTask(context.Background(), submission(1))
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStartTwice(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)
	assert.Error(t, orch.Start(context.Background()))
}

// Full happy path: two workers drain a three-unit task and the aggregated
// result preserves chunk order.
func TestHappyPath(t *testing.T) {
	orch, clock := newTestOrchestrator(t, nil)
	ctx := context.Background()

	w1, err := orch.RegisterWorker(ctx, "", "localhost:9001", []string{"script"})
	require.NoError(t, err)
	w2, err := orch.RegisterWorker(ctx, "", "localhost:9002", []string{"script"})
	require.NoError(t, err)

	task, err := orch.SubmitTask(ctx, submission(3))
	require.NoError(t, err)
	assert.Equal(t, types.TaskProcessing, task.Status)
	require.Len(t, task.WorkUnitIDs, 3)

	workers := []*types.Worker{w1, w2, w1}
	for i := 0; i < 3; i++ {
		w := workers[i]
		u, err := orch.RequestWorkUnit(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, task.WorkUnitIDs[i], u.ID)

		clock.Advance(time.Second)
		err = orch.SubmitResult(ctx, u.ID, w.ID, u.Assignment.LeaseToken, json.RawMessage(fmt.Sprintf(`"out%d"`, i)))
		require.NoError(t, err)
	}

	got, err := orch.GetTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, got.Status)
	require.Len(t, got.AggregatedResult, 3)
	for i, r := range got.AggregatedResult {
		assert.Equal(t, fmt.Sprintf(`"out%d"`, i), string(r))
	}
}

// A worker that stops heartbeating loses its unit to another worker.
func TestLostWorkerUnitIsReassigned(t *testing.T) {
	orch, clock := newTestOrchestrator(t, nil)
	ctx := context.Background()

	w1, err := orch.RegisterWorker(ctx, "w1", "localhost:9001", nil)
	require.NoError(t, err)
	_, err = orch.RegisterWorker(ctx, "w2", "localhost:9002", nil)
	require.NoError(t, err)

	task, err := orch.SubmitTask(ctx, submission(1))
	require.NoError(t, err)

	u1, err := orch.RequestWorkUnit(ctx, w1.ID)
	require.NoError(t, err)

	// w2 keeps heartbeating; w1 goes silent past the timeout.
	clock.Advance(20 * time.Second)
	require.NoError(t, orch.Heartbeat(ctx, "w2"))
	clock.Advance(20 * time.Second)
	require.NoError(t, orch.Sweep(ctx))

	u2, err := orch.RequestWorkUnit(ctx, "w2")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, 2, u2.Attempts)
	assert.NotEqual(t, u1.Assignment.LeaseToken, u2.Assignment.LeaseToken)

	// The late result from the lost worker is rejected.
	err = orch.SubmitResult(ctx, u1.ID, w1.ID, u1.Assignment.LeaseToken, json.RawMessage(`"late"`))
	assert.ErrorIs(t, err, ErrStaleAssignment)

	// The current holder's result completes the task.
	err = orch.SubmitResult(ctx, u2.ID, "w2", u2.Assignment.LeaseToken, json.RawMessage(`"fresh"`))
	require.NoError(t, err)

	got, err := orch.GetTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskCompleted, got.Status)
	assert.Equal(t, `"fresh"`, string(got.AggregatedResult[0]))
}

// A unit that keeps expiring exhausts its attempt budget and fails the task.
func TestRetryBudgetExhaustionFailsTask(t *testing.T) {
	config := DefaultConfig()
	config.MaxAttempts = 2
	config.LeaseDuration = time.Minute
	orch, clock := newTestOrchestrator(t, config)
	ctx := context.Background()

	_, err := orch.RegisterWorker(ctx, "w1", "localhost:9001", nil)
	require.NoError(t, err)

	task, err := orch.SubmitTask(ctx, submission(1))
	require.NoError(t, err)

	for attempt := 0; attempt < 2; attempt++ {
		_, err = orch.RequestWorkUnit(ctx, "w1")
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		// The sweep sees both a lapsed heartbeat and an expired lease;
		// the heartbeat afterwards brings the worker back.
		require.NoError(t, orch.Sweep(ctx))
		require.NoError(t, orch.Heartbeat(ctx, "w1"))
	}

	got, err := orch.GetTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskFailed, got.Status)
	assert.Nil(t, got.AggregatedResult)

	_, err = orch.RequestWorkUnit(ctx, "w1")
	assert.ErrorIs(t, err, ErrNoWork)
}

func TestHeartbeatUnknownWorkerViaAPI(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)
	err := orch.Heartbeat(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownWorker)
}

func TestListWorkers(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)
	ctx := context.Background()

	_, err := orch.RegisterWorker(ctx, "w1", "localhost:9001", nil)
	require.NoError(t, err)
	_, err = orch.RegisterWorker(ctx, "w2", "localhost:9002", nil)
	require.NoError(t, err)

	workers, err := orch.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, workers, 2)
}

func TestSubscribeReceivesLifecycleEvents(t *testing.T) {
	orch, clock := newTestOrchestrator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := orch.Subscribe(ctx)

	w, err := orch.RegisterWorker(ctx, "", "localhost:9001", nil)
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, types.EventWorkerRegistered, ev.Type)
	assert.Equal(t, w.ID, ev.WorkerID)

	clock.Advance(time.Minute)
	require.NoError(t, orch.Sweep(ctx))

	ev = <-events
	assert.Equal(t, types.EventWorkerLost, ev.Type)

	require.NoError(t, orch.Heartbeat(ctx, w.ID))
	ev = <-events
	assert.Equal(t, types.EventWorkerRestored, ev.Type)
}

func TestGetStats(t *testing.T) {
	orch, clock := newTestOrchestrator(t, nil)
	ctx := context.Background()

	_, err := orch.RegisterWorker(ctx, "w1", "localhost:9001", nil)
	require.NoError(t, err)

	_, err = orch.SubmitTask(ctx, submission(2))
	require.NoError(t, err)

	u, err := orch.RequestWorkUnit(ctx, "w1")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	require.NoError(t, orch.SubmitResult(ctx, u.ID, "w1", u.Assignment.LeaseToken, json.RawMessage(`"out"`)))

	snap, err := orch.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Workers)
	assert.Equal(t, 0, snap.WorkersLost)
	assert.Equal(t, 1, snap.TasksActive)
	assert.Equal(t, 1, snap.PendingUnits)
	assert.Equal(t, int64(1), snap.UnitsAssigned)
	assert.Equal(t, int64(1), snap.UnitsCompleted)
	assert.GreaterOrEqual(t, snap.TurnaroundMsMax, int64(2000))
}

func TestStoreRejectsCancelledContext(t *testing.T) {
	orch, _ := newTestOrchestrator(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.RegisterWorker(ctx, "", "localhost:9001", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
