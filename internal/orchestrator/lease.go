package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"neuroweave/orchestrator/pkg/types"
)

// requestUnit dequeues the head pending unit and leases it to the worker.
// The dequeue, status transition, token generation and worker bookkeeping
// happen inside one store transaction, so two concurrent requests can never
// receive the same unit.
func requestUnit(s *State, workerID string, now time.Time, leaseDuration time.Duration) (*types.WorkUnit, error) {
	w, ok := s.Workers[workerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorker, workerID)
	}

	// The request itself proves liveness; a Lost worker holds no lease,
	// so it is restored before being served.
	if w.Status == types.WorkerLost {
		w.Status = types.WorkerAvailable
		w.AssignedUnitID = ""
	}
	w.LastHeartbeat = now

	if w.Status == types.WorkerBusy {
		return nil, fmt.Errorf("%w: %s", ErrWorkerBusy, workerID)
	}

	unitID, ok := s.Pending.Pop()
	if !ok {
		return nil, ErrNoWork
	}

	u := s.Units[unitID]
	u.Status = types.UnitAssigned
	u.Assignment = &types.Assignment{
		WorkerID:   workerID,
		LeaseToken: uuid.New().String(),
		ExpiresAt:  now.Add(leaseDuration),
	}
	u.Attempts++
	u.AssignedAt = now

	w.Status = types.WorkerBusy
	w.AssignedUnitID = unitID

	return u.Clone(), nil
}

// reclaimExpired returns every Assigned unit whose lease lapsed, or whose
// owning worker is Lost, to the tail of the pending queue while its attempt
// budget remains; otherwise the unit fails permanently and takes its task
// with it. An expired-but-alive worker keeps its Busy status: it may still
// be computing, and its next heartbeat or submission settles it.
func reclaimExpired(s *State, now time.Time, maxAttempts int) (reclaimed, failed []types.Event) {
	for _, u := range s.Units {
		if u.Status != types.UnitAssigned {
			continue
		}

		owner, known := s.Workers[u.Assignment.WorkerID]
		ownerLost := !known || owner.Status == types.WorkerLost
		if !ownerLost && now.Before(u.Assignment.ExpiresAt) {
			continue
		}

		if ownerLost && known && owner.AssignedUnitID == u.ID {
			owner.AssignedUnitID = ""
		}
		u.Assignment = nil

		if u.Attempts < maxAttempts {
			u.Status = types.UnitPending
			s.Pending.Push(u.ID)
			reclaimed = append(reclaimed, types.Event{
				Type:       types.EventUnitReclaimed,
				TaskID:     u.TaskID,
				WorkUnitID: u.ID,
				Timestamp:  now,
			})
			continue
		}

		u.Status = types.UnitFailed
		failed = append(failed, failTask(s, u.TaskID, now)...)
	}
	return reclaimed, failed
}

// failTask transitions the owning task to Failed exactly once.
func failTask(s *State, taskID string, now time.Time) []types.Event {
	t, ok := s.Tasks[taskID]
	if !ok || t.Status == types.TaskFailed || t.Status == types.TaskCompleted {
		return nil
	}
	t.Status = types.TaskFailed
	return []types.Event{{
		Type:      types.EventTaskFailed,
		TaskID:    taskID,
		Timestamp: now,
	}}
}
