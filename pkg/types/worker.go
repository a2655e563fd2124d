package types

import "time"

// WorkerStatus represents the state of a worker node.
type WorkerStatus string

const (
	// WorkerAvailable indicates the worker is idle and may request work.
	WorkerAvailable WorkerStatus = "available"
	// WorkerBusy indicates the worker holds an active lease.
	WorkerBusy WorkerStatus = "busy"
	// WorkerLost indicates the worker stopped heartbeating.
	WorkerLost WorkerStatus = "lost"
)

// Worker contains the registration record and liveness state of a worker node.
type Worker struct {
	ID            string
	Address       string
	Capabilities  []string
	Status        WorkerStatus
	LastHeartbeat time.Time

	// AssignedUnitID is the work unit this worker currently leases,
	// empty when the worker holds no lease.
	AssignedUnitID string
}

// Clone returns a deep copy of the worker record.
func (w *Worker) Clone() *Worker {
	c := *w
	if w.Capabilities != nil {
		c.Capabilities = make([]string, len(w.Capabilities))
		copy(c.Capabilities, w.Capabilities)
	}
	return &c
}

// EventType defines the type of lifecycle event.
type EventType string

const (
	// EventWorkerRegistered indicates a worker was registered.
	EventWorkerRegistered EventType = "worker_registered"
	// EventWorkerLost indicates the liveness sweep marked a worker lost.
	EventWorkerLost EventType = "worker_lost"
	// EventWorkerRestored indicates a lost worker resumed heartbeating.
	EventWorkerRestored EventType = "worker_restored"
	// EventUnitReclaimed indicates a work unit was returned to the queue.
	EventUnitReclaimed EventType = "unit_reclaimed"
	// EventTaskCompleted indicates a task finished with an aggregated result.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed permanently.
	EventTaskFailed EventType = "task_failed"
)

// Event represents an orchestrator lifecycle event.
type Event struct {
	Type       EventType `json:"type"`
	WorkerID   string    `json:"worker_id,omitempty"`
	TaskID     string    `json:"task_id,omitempty"`
	WorkUnitID string    `json:"work_unit_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
