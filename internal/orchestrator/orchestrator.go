package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"neuroweave/orchestrator/pkg/logger"
	"neuroweave/orchestrator/pkg/types"
)

// Config holds the orchestration parameters.
type Config struct {
	// LeaseDuration is how long a worker may hold a work unit before the
	// lease becomes eligible for reclamation.
	LeaseDuration time.Duration

	// HeartbeatTimeout is the liveness grace period for workers.
	HeartbeatTimeout time.Duration

	// MaxAttempts is the number of assignments a unit may consume before
	// it fails permanently.
	MaxAttempts int

	// SweepInterval is the period of the background liveness sweep.
	SweepInterval time.Duration

	// QueuePolicy selects the pending-queue discipline. FIFO is the only
	// supported policy.
	QueuePolicy string
}

// QueuePolicyFIFO hands out units in enqueue order.
const QueuePolicyFIFO = "fifo"

// DefaultConfig returns a default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		LeaseDuration:    2 * time.Minute,
		HeartbeatTimeout: 30 * time.Second,
		MaxAttempts:      3,
		SweepInterval:    5 * time.Second,
		QueuePolicy:      QueuePolicyFIFO,
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.LeaseDuration <= 0 {
		return fmt.Errorf("lease duration must be positive: %v", c.LeaseDuration)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("heartbeat timeout must be positive: %v", c.HeartbeatTimeout)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive: %d", c.MaxAttempts)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %v", c.SweepInterval)
	}
	if c.QueuePolicy != QueuePolicyFIFO {
		return fmt.Errorf("unsupported queue policy: %q", c.QueuePolicy)
	}
	return nil
}

// Orchestrator is the composition root: it owns the state store, exposes
// the operation set, and runs the background liveness sweep.
type Orchestrator struct {
	config     *Config
	store      Store
	decomposer *Decomposer
	stats      *Stats

	// now is replaceable for tests.
	now func() time.Time

	subscribers []chan *types.Event
	subMu       sync.RWMutex

	started     atomic.Bool
	stopOnce    sync.Once
	sweepCtx    context.Context
	sweepCancel context.CancelFunc
	stopped     chan struct{}
}

// New creates an orchestrator over the given store. A nil store gets an
// in-memory one; a nil config gets defaults.
func New(config *Config, store Store) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}

	return &Orchestrator{
		config:     config,
		store:      store,
		decomposer: NewDecomposer(),
		stats:      newStats(),
		now:        time.Now,
		stopped:    make(chan struct{}),
	}, nil
}

// Config returns the active configuration.
func (o *Orchestrator) Config() *Config {
	return o.config
}

// Start launches the background liveness sweep.
func (o *Orchestrator) Start(ctx context.Context) error {
	if !o.started.CompareAndSwap(false, true) {
		return fmt.Errorf("orchestrator already started")
	}

	o.sweepCtx, o.sweepCancel = context.WithCancel(context.Background())
	go o.sweepLoop()

	logger.Info("orchestrator started (lease=%v heartbeat_timeout=%v max_attempts=%d)",
		o.config.LeaseDuration, o.config.HeartbeatTimeout, o.config.MaxAttempts)
	return nil
}

// Stop shuts the orchestrator down. In-flight leases are left as they are;
// a restarted orchestrator reclaims them through the normal sweep.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.stopOnce.Do(func() {
		if o.sweepCancel != nil {
			o.sweepCancel()
		}
		o.started.Store(false)
		close(o.stopped)
	})
	return nil
}

// IsRunning reports whether the orchestrator accepts operations.
func (o *Orchestrator) IsRunning() bool {
	return o.started.Load()
}

// RegisterWorker registers a worker node and returns its record. The id is
// optional; an explicit id that collides fails with ErrAlreadyRegistered.
func (o *Orchestrator) RegisterWorker(ctx context.Context, id, address string, capabilities []string) (*types.Worker, error) {
	var w *types.Worker
	err := o.store.Update(ctx, func(s *State) error {
		var err error
		w, err = registerWorker(s, id, address, capabilities, o.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("worker registered: %s at %s", w.ID, w.Address)
	o.publish(&types.Event{Type: types.EventWorkerRegistered, WorkerID: w.ID, Timestamp: w.LastHeartbeat})
	return w, nil
}

// Heartbeat refreshes a worker's liveness.
func (o *Orchestrator) Heartbeat(ctx context.Context, workerID string) error {
	var events []types.Event
	err := o.store.Update(ctx, func(s *State) error {
		var err error
		events, err = heartbeat(s, workerID, o.now())
		return err
	})
	if err != nil {
		return err
	}
	o.publishAll(events)
	return nil
}

// SubmitTask decomposes a submission and enqueues its work units. The task,
// its units and the queue entries are persisted in one transaction, so a
// task is never visible with a partial set of units.
func (o *Orchestrator) SubmitTask(ctx context.Context, sub types.TaskSubmission) (*types.Task, error) {
	if !o.started.Load() {
		return nil, ErrNotRunning
	}

	task, units, err := o.decomposer.Decompose(sub)
	if err != nil {
		return nil, err
	}

	err = o.store.Update(ctx, func(s *State) error {
		s.Tasks[task.ID] = task
		for _, u := range units {
			s.Units[u.ID] = u
			s.Pending.Push(u.ID)
		}
		task.Status = types.TaskProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("task %s (%s) split into %d work units", task.ID, task.Name, len(units))
	return task.Clone(), nil
}

// RequestWorkUnit leases the next pending unit to the worker. The returned
// unit carries the lease token and expiry in its Assignment. An empty queue
// returns ErrNoWork immediately; polling cadence is the caller's concern.
func (o *Orchestrator) RequestWorkUnit(ctx context.Context, workerID string) (*types.WorkUnit, error) {
	var unit *types.WorkUnit
	err := o.store.Update(ctx, func(s *State) error {
		var err error
		unit, err = requestUnit(s, workerID, o.now(), o.config.LeaseDuration)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.stats.recordAssigned()
	logger.Debug("assigned unit %s to worker %s (attempt %d)", unit.ID, workerID, unit.Attempts)
	return unit, nil
}

// SubmitResult records a work-unit result under the supplied lease token
// and drives the owning task's completion check.
func (o *Orchestrator) SubmitResult(ctx context.Context, unitID, workerID, leaseToken string, output json.RawMessage) error {
	var (
		events     []types.Event
		turnaround time.Duration
	)
	err := o.store.Update(ctx, func(s *State) error {
		var err error
		events, turnaround, err = submitResult(s, unitID, workerID, leaseToken, output, o.now())
		return err
	})
	if err != nil {
		return err
	}

	o.stats.recordCompleted(turnaround)
	for i := range events {
		if events[i].Type == types.EventTaskCompleted {
			logger.Info("task %s completed", events[i].TaskID)
		}
	}
	o.publishAll(events)
	return nil
}

// GetTaskStatus returns a snapshot of the task, including the aggregated
// result once it completed.
func (o *Orchestrator) GetTaskStatus(ctx context.Context, taskID string) (*types.Task, error) {
	var task *types.Task
	err := o.store.View(ctx, func(s *State) error {
		var err error
		task, err = getTask(s, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListWorkers returns snapshots of all registered workers.
func (o *Orchestrator) ListWorkers(ctx context.Context) ([]*types.Worker, error) {
	var workers []*types.Worker
	err := o.store.View(ctx, func(s *State) error {
		workers = make([]*types.Worker, 0, len(s.Workers))
		for _, w := range s.Workers {
			workers = append(workers, w.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workers, nil
}

// Sweep runs one liveness and lease-reclamation pass. The background loop
// calls it on SweepInterval; it is exported so hosts and tests can force a
// pass deterministically.
func (o *Orchestrator) Sweep(ctx context.Context) error {
	var (
		lost      []types.Event
		reclaimed []types.Event
		failed    []types.Event
	)
	err := o.store.Update(ctx, func(s *State) error {
		now := o.now()
		lost = markLostWorkers(s, now, o.config.HeartbeatTimeout)
		reclaimed, failed = reclaimExpired(s, now, o.config.MaxAttempts)
		return nil
	})
	if err != nil {
		return err
	}

	if len(lost) > 0 || len(reclaimed) > 0 || len(failed) > 0 {
		logger.Info("sweep: %d workers lost, %d units reclaimed, %d tasks failed",
			len(lost), len(reclaimed), len(failed))
	}
	o.stats.recordReclaimed(len(reclaimed))
	o.stats.recordFailed(len(failed))
	o.publishAll(lost)
	o.publishAll(reclaimed)
	o.publishAll(failed)
	return nil
}

// GetStats returns a snapshot of counters, gauges and latency percentiles.
func (o *Orchestrator) GetStats(ctx context.Context) (*StatsSnapshot, error) {
	snap := o.stats.snapshot()
	err := o.store.View(ctx, func(s *State) error {
		snap.Workers = len(s.Workers)
		for _, w := range s.Workers {
			if w.Status == types.WorkerLost {
				snap.WorkersLost++
			}
		}
		for _, t := range s.Tasks {
			if t.Status == types.TaskProcessing {
				snap.TasksActive++
			}
		}
		snap.PendingUnits = s.Pending.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Subscribe returns a channel of lifecycle events. The channel is closed
// when ctx is done; slow consumers drop events rather than block the
// orchestrator.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan *types.Event {
	ch := make(chan *types.Event, 100)

	o.subMu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.subMu.Unlock()

	go func() {
		<-ctx.Done()
		o.removeSubscriber(ch)
		close(ch)
	}()

	return ch
}

func (o *Orchestrator) publish(event *types.Event) {
	o.subMu.RLock()
	defer o.subMu.RUnlock()
	for _, ch := range o.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

func (o *Orchestrator) publishAll(events []types.Event) {
	for i := range events {
		o.publish(&events[i])
	}
}

func (o *Orchestrator) removeSubscriber(ch chan *types.Event) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for i, sub := range o.subscribers {
		if sub == ch {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			break
		}
	}
}

func (o *Orchestrator) sweepLoop() {
	ticker := time.NewTicker(o.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.sweepCtx.Done():
			return
		case <-ticker.C:
			if err := o.Sweep(o.sweepCtx); err != nil && o.sweepCtx.Err() == nil {
				logger.Error("sweep failed: %v", err)
			}
		}
	}
}
