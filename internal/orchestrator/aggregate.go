package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	"neuroweave/orchestrator/pkg/types"
)

// submitResult validates and records a work-unit result. Completion is
// write-once: a result for a unit that is no longer Assigned under the
// supplied token is rejected, never applied, which covers leases that were
// reclaimed and reassigned before the original worker submitted.
func submitResult(s *State, unitID, workerID, leaseToken string, output json.RawMessage, now time.Time) ([]types.Event, time.Duration, error) {
	u, ok := s.Units[unitID]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownWorkUnit, unitID)
	}
	w, ok := s.Workers[workerID]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}

	if u.Status != types.UnitAssigned || u.Assignment == nil ||
		u.Assignment.WorkerID != workerID || u.Assignment.LeaseToken != leaseToken {
		return nil, 0, fmt.Errorf("%w: unit %s", ErrStaleAssignment, unitID)
	}

	u.Result = output
	u.Status = types.UnitCompleted
	u.Assignment = nil
	turnaround := now.Sub(u.AssignedAt)

	if w.AssignedUnitID == unitID {
		w.AssignedUnitID = ""
	}
	if w.Status == types.WorkerBusy {
		w.Status = types.WorkerAvailable
	}
	w.LastHeartbeat = now

	return checkCompletion(s, u.TaskID, now), turnaround, nil
}

// checkCompletion inspects the owning task's unit list in submission order
// and aggregates exactly once when every unit completed. Running under the
// store transaction guards the last-two-completions race: only the
// submission that observes the final completion sees Status == Processing
// with all units done.
func checkCompletion(s *State, taskID string, now time.Time) []types.Event {
	t, ok := s.Tasks[taskID]
	if !ok || t.Status != types.TaskProcessing {
		return nil
	}

	results := make([]json.RawMessage, 0, len(t.WorkUnitIDs))
	for _, unitID := range t.WorkUnitIDs {
		u := s.Units[unitID]
		switch u.Status {
		case types.UnitFailed:
			return failTask(s, taskID, now)
		case types.UnitCompleted:
			results = append(results, u.Result)
		default:
			return nil
		}
	}

	t.AggregatedResult = results
	t.Status = types.TaskCompleted
	return []types.Event{{
		Type:      types.EventTaskCompleted,
		TaskID:    taskID,
		Timestamp: now,
	}}
}

// getTask returns a snapshot of the task.
func getTask(s *State, taskID string) (*types.Task, error) {
	t, ok := s.Tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return t.Clone(), nil
}
