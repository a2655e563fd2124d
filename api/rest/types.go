package rest

import (
	"time"

	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/types"
)

func toWorkerResponse(w *types.Worker) types.WorkerResponse {
	resp := types.WorkerResponse{
		WorkerID:     w.ID,
		Address:      w.Address,
		Capabilities: w.Capabilities,
		Status:       string(w.Status),
	}
	if !w.LastHeartbeat.IsZero() {
		resp.LastHeartbeat = w.LastHeartbeat.Format(time.RFC3339)
	}
	return resp
}

func toTaskResponse(t *types.Task) types.TaskResponse {
	return types.TaskResponse{
		TaskID:           t.ID,
		TaskName:         t.Name,
		Status:           string(t.Status),
		WorkUnitIDs:      t.WorkUnitIDs,
		AggregatedResult: t.AggregatedResult,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
	}
}

func toWorkUnitResponse(u *types.WorkUnit, task *types.Task) types.WorkUnitResponse {
	resp := types.WorkUnitResponse{
		WorkUnitID: u.ID,
		TaskID:     u.TaskID,
		Payload:    u.Payload,
		Attempt:    u.Attempts,
	}
	if task != nil {
		resp.ModelConfig = task.ModelConfig
	}
	if u.Assignment != nil {
		resp.LeaseToken = u.Assignment.LeaseToken
		resp.LeaseExpires = u.Assignment.ExpiresAt
	}
	return resp
}

func toStatsResponse(snap *orchestrator.StatsSnapshot) types.StatsResponse {
	return types.StatsResponse{
		Workers:         snap.Workers,
		WorkersLost:     snap.WorkersLost,
		TasksActive:     snap.TasksActive,
		PendingUnits:    snap.PendingUnits,
		UnitsAssigned:   snap.UnitsAssigned,
		UnitsCompleted:  snap.UnitsCompleted,
		UnitsReclaimed:  snap.UnitsReclaimed,
		UnitsFailed:     snap.UnitsFailed,
		TurnaroundMsP50: snap.TurnaroundMsP50,
		TurnaroundMsP95: snap.TurnaroundMsP95,
		TurnaroundMsP99: snap.TurnaroundMsP99,
		TurnaroundMsMax: snap.TurnaroundMsMax,
	}
}
