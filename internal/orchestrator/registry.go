package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"neuroweave/orchestrator/pkg/types"
)

// registerWorker adds a worker to the registry. An empty id asks the
// orchestrator to allocate one; a caller-supplied id that collides with an
// existing worker is rejected.
func registerWorker(s *State, id, address string, capabilities []string, now time.Time) (*types.Worker, error) {
	if id == "" {
		id = uuid.New().String()
	} else if _, exists := s.Workers[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}

	w := &types.Worker{
		ID:            id,
		Address:       address,
		Capabilities:  capabilities,
		Status:        types.WorkerAvailable,
		LastHeartbeat: now,
	}
	s.Workers[id] = w

	return w.Clone(), nil
}

// heartbeat refreshes a worker's liveness. A Lost worker is restored to
// Available: losing it already triggered reclamation, so it holds no work.
// A Busy worker is never flipped to Available while its lease is still the
// unit's current assignment; it is freed only when the unit has moved on
// (reclaimed and reassigned, or completed elsewhere).
func heartbeat(s *State, workerID string, now time.Time) ([]types.Event, error) {
	w, ok := s.Workers[workerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}

	w.LastHeartbeat = now

	var events []types.Event
	switch w.Status {
	case types.WorkerLost:
		w.Status = types.WorkerAvailable
		w.AssignedUnitID = ""
		events = append(events, types.Event{
			Type:      types.EventWorkerRestored,
			WorkerID:  workerID,
			Timestamp: now,
		})
	case types.WorkerBusy:
		if !holdsCurrentLease(s, w) {
			w.Status = types.WorkerAvailable
			w.AssignedUnitID = ""
		}
	}

	return events, nil
}

// holdsCurrentLease reports whether the unit the worker believes it is
// executing still names this worker in its current assignment.
func holdsCurrentLease(s *State, w *types.Worker) bool {
	if w.AssignedUnitID == "" {
		return false
	}
	u, ok := s.Units[w.AssignedUnitID]
	if !ok {
		return false
	}
	return u.Status == types.UnitAssigned && u.Assignment != nil && u.Assignment.WorkerID == w.ID
}

// markLostWorkers marks every worker whose heartbeat lapsed as Lost.
// Sweeping an already-Lost worker is a no-op.
func markLostWorkers(s *State, now time.Time, timeout time.Duration) []types.Event {
	var events []types.Event
	for id, w := range s.Workers {
		if w.Status == types.WorkerLost {
			continue
		}
		if now.Sub(w.LastHeartbeat) <= timeout {
			continue
		}
		w.Status = types.WorkerLost
		events = append(events, types.Event{
			Type:      types.EventWorkerLost,
			WorkerID:  id,
			Timestamp: now,
		})
	}
	return events
}
