package types

import (
	"encoding/json"
	"time"
)

// TaskStatus represents the state of a task.
type TaskStatus string

const (
	// TaskPending indicates the task was created but not yet decomposed.
	TaskPending TaskStatus = "pending"
	// TaskProcessing indicates the task's work units are being executed.
	TaskProcessing TaskStatus = "processing"
	// TaskCompleted indicates every work unit completed and the result is aggregated.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed indicates a work unit exhausted its retry budget.
	TaskFailed TaskStatus = "failed"
)

// Task is one submitted batch job, decomposed into independent work units.
type Task struct {
	ID          string
	Name        string
	ModelConfig json.RawMessage

	// WorkUnitIDs preserves the original submission order. Aggregation
	// iterates this list, never a lookup structure.
	WorkUnitIDs []string

	Status    TaskStatus
	CreatedAt time.Time

	// AggregatedResult holds the per-unit outputs in submission order.
	// Set exactly once, when the task completes.
	AggregatedResult []json.RawMessage
}

// Clone returns a deep copy of the task record.
func (t *Task) Clone() *Task {
	c := *t
	if t.WorkUnitIDs != nil {
		c.WorkUnitIDs = make([]string, len(t.WorkUnitIDs))
		copy(c.WorkUnitIDs, t.WorkUnitIDs)
	}
	if t.AggregatedResult != nil {
		c.AggregatedResult = make([]json.RawMessage, len(t.AggregatedResult))
		copy(c.AggregatedResult, t.AggregatedResult)
	}
	return &c
}

// TaskSubmission is the input for creating a task.
type TaskSubmission struct {
	Name        string
	ModelConfig json.RawMessage

	// DataInput is the ordered list of data chunks; each chunk becomes
	// one work unit.
	DataInput []json.RawMessage
}

// UnitStatus represents the state of a work unit.
type UnitStatus string

const (
	// UnitPending indicates the unit is queued and waiting for a worker.
	UnitPending UnitStatus = "pending"
	// UnitAssigned indicates the unit is leased to a worker.
	UnitAssigned UnitStatus = "assigned"
	// UnitCompleted indicates a result was accepted for the unit.
	UnitCompleted UnitStatus = "completed"
	// UnitFailed indicates the unit exhausted its retry budget.
	UnitFailed UnitStatus = "failed"
)

// Assignment records the lease a worker holds on a work unit. The token is
// regenerated on every assignment, so results carrying a superseded token
// can be detected and rejected.
type Assignment struct {
	WorkerID   string
	LeaseToken string
	ExpiresAt  time.Time
}

// WorkUnit is one independently schedulable chunk of a task's input.
type WorkUnit struct {
	ID      string
	TaskID  string
	Payload json.RawMessage

	Status     UnitStatus
	Assignment *Assignment
	Attempts   int
	AssignedAt time.Time

	Result json.RawMessage
}

// Clone returns a deep copy of the work unit record.
func (u *WorkUnit) Clone() *WorkUnit {
	c := *u
	if u.Assignment != nil {
		a := *u.Assignment
		c.Assignment = &a
	}
	return &c
}
