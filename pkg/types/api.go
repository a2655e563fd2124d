package types

import (
	"encoding/json"
	"time"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AckResponse represents a simple acknowledgement.
type AckResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool   `json:"ready"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RegisterWorkerRequest registers a worker node.
type RegisterWorkerRequest struct {
	// WorkerID is optional; when empty the orchestrator assigns one.
	WorkerID     string   `json:"worker_id,omitempty"`
	Address      string   `json:"address"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// WorkerResponse describes a registered worker.
type WorkerResponse struct {
	WorkerID      string   `json:"worker_id"`
	Address       string   `json:"address"`
	Capabilities  []string `json:"capabilities,omitempty"`
	Status        string   `json:"status"`
	LastHeartbeat string   `json:"last_heartbeat,omitempty"`
}

// WorkerListResponse lists registered workers.
type WorkerListResponse struct {
	Workers []WorkerResponse `json:"workers"`
	Total   int              `json:"total"`
}

// SubmitTaskRequest submits a task for distributed execution.
type SubmitTaskRequest struct {
	TaskName    string            `json:"task_name"`
	ModelConfig json.RawMessage   `json:"model_config,omitempty"`
	DataInput   []json.RawMessage `json:"data_input"`
}

// TaskResponse is a snapshot of a task.
type TaskResponse struct {
	TaskID           string            `json:"task_id"`
	TaskName         string            `json:"task_name"`
	Status           string            `json:"status"`
	WorkUnitIDs      []string          `json:"work_unit_ids"`
	AggregatedResult []json.RawMessage `json:"aggregated_result,omitempty"`
	CreatedAt        string            `json:"created_at"`
}

// RequestUnitRequest asks for the next pending work unit.
type RequestUnitRequest struct {
	WorkerID string `json:"worker_id"`
}

// WorkUnitResponse is a leased work unit handed to a worker.
type WorkUnitResponse struct {
	WorkUnitID   string          `json:"work_unit_id"`
	TaskID       string          `json:"task_id"`
	Payload      json.RawMessage `json:"payload"`
	ModelConfig  json.RawMessage `json:"model_config,omitempty"`
	LeaseToken   string          `json:"lease_token"`
	LeaseExpires time.Time       `json:"lease_expires"`
	Attempt      int             `json:"attempt"`
}

// SubmitResultRequest submits the output for a leased work unit.
type SubmitResultRequest struct {
	WorkerID   string          `json:"worker_id"`
	LeaseToken string          `json:"lease_token"`
	Output     json.RawMessage `json:"output"`
}

// StatsResponse reports orchestrator counters and unit turnaround latencies.
type StatsResponse struct {
	Workers        int   `json:"workers"`
	WorkersLost    int   `json:"workers_lost"`
	TasksActive    int   `json:"tasks_active"`
	PendingUnits   int   `json:"pending_units"`
	UnitsAssigned  int64 `json:"units_assigned"`
	UnitsCompleted int64 `json:"units_completed"`
	UnitsReclaimed int64 `json:"units_reclaimed"`
	UnitsFailed    int64 `json:"units_failed"`

	TurnaroundMsP50 int64 `json:"turnaround_ms_p50"`
	TurnaroundMsP95 int64 `json:"turnaround_ms_p95"`
	TurnaroundMsP99 int64 `json:"turnaround_ms_p99"`
	TurnaroundMsMax int64 `json:"turnaround_ms_max"`
}
