package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"neuroweave/orchestrator/pkg/types"
)

// Decomposer splits a task submission into work units, one per data chunk,
// preserving submission order. It has no side effects; the caller persists
// and enqueues the returned objects atomically with task creation.
type Decomposer struct{}

// NewDecomposer creates a task decomposer.
func NewDecomposer() *Decomposer {
	return &Decomposer{}
}

// Decompose builds the task and its ordered work units from a submission.
func (d *Decomposer) Decompose(sub types.TaskSubmission) (*types.Task, []*types.WorkUnit, error) {
	if len(sub.DataInput) == 0 {
		return nil, nil, ErrEmptyInput
	}

	task := &types.Task{
		ID:          uuid.New().String(),
		Name:        sub.Name,
		ModelConfig: sub.ModelConfig,
		WorkUnitIDs: make([]string, 0, len(sub.DataInput)),
		Status:      types.TaskPending,
		CreatedAt:   time.Now(),
	}

	units := make([]*types.WorkUnit, 0, len(sub.DataInput))
	for _, chunk := range sub.DataInput {
		unit := &types.WorkUnit{
			ID:      uuid.New().String(),
			TaskID:  task.ID,
			Payload: chunk,
			Status:  types.UnitPending,
		}
		task.WorkUnitIDs = append(task.WorkUnitIDs, unit.ID)
		units = append(units, unit)
	}

	return task, units, nil
}
