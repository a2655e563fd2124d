// Package worker implements a reference worker node: it registers with the
// orchestrator, heartbeats on a fixed interval, pulls work units one at a
// time and submits their results. Task execution itself is deliberately
// simple; the orchestration protocol is the point.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"neuroweave/orchestrator/api/rest/client"
	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/logger"
	"neuroweave/orchestrator/pkg/types"
)

// Config holds the configuration for a worker node.
type Config struct {
	// OrchestratorURL is the base URL of the orchestrator.
	OrchestratorURL string

	// Address is the address this worker advertises at registration.
	Address string

	// Capabilities are opaque capability tags.
	Capabilities []string

	// HeartbeatInterval is the interval between heartbeats.
	HeartbeatInterval time.Duration

	// PollInterval is how long to wait after a NoWork response before
	// polling again.
	PollInterval time.Duration

	// RequestTimeout is the timeout for HTTP requests.
	RequestTimeout time.Duration

	// ScriptTimeout bounds a single unit's script evaluation.
	ScriptTimeout time.Duration
}

// DefaultConfig returns a default worker configuration.
func DefaultConfig() *Config {
	return &Config{
		OrchestratorURL:   "http://localhost:8080",
		Address:           "localhost:8081",
		Capabilities:      []string{"script"},
		HeartbeatInterval: 10 * time.Second,
		PollInterval:      2 * time.Second,
		RequestTimeout:    15 * time.Second,
		ScriptTimeout:     30 * time.Second,
	}
}

// Worker is a pull-based worker node.
type Worker struct {
	config   *Config
	client   *client.Client
	executor *Executor

	id string
	mu sync.RWMutex
}

// New creates a worker node.
func New(config *Config) *Worker {
	if config == nil {
		config = DefaultConfig()
	}
	return &Worker{
		config: config,
		client: client.New(&client.Config{
			OrchestratorURL: config.OrchestratorURL,
			RequestTimeout:  config.RequestTimeout,
		}),
		executor: NewExecutor(config.ScriptTimeout),
	}
}

// ID returns the orchestrator-assigned worker ID, empty before Run
// registered successfully.
func (w *Worker) ID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.id
}

// Run registers the worker and processes units until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.client.Ping(); err != nil {
		return err
	}

	resp, err := w.client.RegisterWorker(&types.RegisterWorkerRequest{
		Address:      w.config.Address,
		Capabilities: w.config.Capabilities,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	w.mu.Lock()
	w.id = resp.WorkerID
	w.mu.Unlock()
	logger.Info("worker %s registered with %s", resp.WorkerID, w.config.OrchestratorURL)

	go w.heartbeatLoop(ctx)
	return w.pollLoop(ctx)
}

func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.client.Heartbeat(w.ID()); err != nil {
				logger.Warn("heartbeat failed: %v", err)
			}
		}
	}
}

func (w *Worker) pollLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		unit, err := w.client.RequestWorkUnit(w.ID())
		if err != nil {
			if errors.Is(err, orchestrator.ErrNoWork) {
				w.sleep(ctx, w.config.PollInterval)
				continue
			}
			if errors.Is(err, orchestrator.ErrWorkerBusy) {
				// The orchestrator still credits us with a lease,
				// probably from a crashed previous run. Wait for it
				// to expire.
				logger.Warn("orchestrator reports a live lease, backing off")
				w.sleep(ctx, w.config.PollInterval)
				continue
			}
			logger.Error("failed to request work: %v", err)
			w.sleep(ctx, w.config.PollInterval)
			continue
		}

		w.process(ctx, unit)
	}
}

func (w *Worker) process(ctx context.Context, unit *types.WorkUnitResponse) {
	logger.Info("executing unit %s (task %s, attempt %d)", unit.WorkUnitID, unit.TaskID, unit.Attempt)

	output, err := w.executor.Execute(ctx, unit.ModelConfig, unit.Payload)
	if err != nil {
		// Do not submit a bogus result; the lease will expire and the
		// unit will be retried, possibly elsewhere.
		logger.Error("unit %s failed: %v", unit.WorkUnitID, err)
		return
	}

	err = w.client.SubmitResult(unit.WorkUnitID, &types.SubmitResultRequest{
		WorkerID:   w.ID(),
		LeaseToken: unit.LeaseToken,
		Output:     output,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrStaleAssignment) {
			logger.Warn("unit %s was reassigned before submission", unit.WorkUnitID)
			return
		}
		logger.Error("failed to submit result for unit %s: %v", unit.WorkUnitID, err)
		return
	}

	logger.Debug("unit %s completed", unit.WorkUnitID)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
