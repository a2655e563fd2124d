package rest

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/types"
)

// healthCheck handles GET /health
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// readyCheck handles GET /ready
func (s *Server) readyCheck(c *fiber.Ctx) error {
	ready := s.orch != nil && s.orch.IsRunning()
	status := "ready"
	if !ready {
		status = "not_ready"
	}
	return c.JSON(types.ReadyResponse{
		Ready:     ready,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// registerWorker handles POST /api/v1/workers/register
func (s *Server) registerWorker(c *fiber.Ctx) error {
	var req types.RegisterWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if req.Address == "" {
		return badRequest(c, "Worker address is required")
	}

	worker, err := s.orch.RegisterWorker(c.Context(), req.WorkerID, req.Address, req.Capabilities)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toWorkerResponse(worker))
}

// workerHeartbeat handles POST /api/v1/workers/:id/heartbeat
func (s *Server) workerHeartbeat(c *fiber.Ctx) error {
	if err := s.orch.Heartbeat(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(types.AckResponse{Message: "heartbeat received"})
}

// listWorkers handles GET /api/v1/workers
func (s *Server) listWorkers(c *fiber.Ctx) error {
	workers, err := s.orch.ListWorkers(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	resp := types.WorkerListResponse{
		Workers: make([]types.WorkerResponse, len(workers)),
		Total:   len(workers),
	}
	for i, w := range workers {
		resp.Workers[i] = toWorkerResponse(w)
	}
	return c.JSON(resp)
}

// submitTask handles POST /api/v1/tasks
func (s *Server) submitTask(c *fiber.Ctx) error {
	var req types.SubmitTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}

	task, err := s.orch.SubmitTask(c.Context(), types.TaskSubmission{
		Name:        req.TaskName,
		ModelConfig: req.ModelConfig,
		DataInput:   req.DataInput,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(task))
}

// getTaskStatus handles GET /api/v1/tasks/:id
func (s *Server) getTaskStatus(c *fiber.Ctx) error {
	task, err := s.orch.GetTaskStatus(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(toTaskResponse(task))
}

// requestWorkUnit handles POST /api/v1/work-units/request
func (s *Server) requestWorkUnit(c *fiber.Ctx) error {
	var req types.RequestUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if req.WorkerID == "" {
		return badRequest(c, "worker_id is required")
	}

	unit, err := s.orch.RequestWorkUnit(c.Context(), req.WorkerID)
	if err != nil {
		return errorResponse(c, err)
	}

	// Ship the owning task's model config with the unit so workers do not
	// need a second round trip.
	task, err := s.orch.GetTaskStatus(c.Context(), unit.TaskID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(toWorkUnitResponse(unit, task))
}

// submitResult handles POST /api/v1/work-units/:id/result
func (s *Server) submitResult(c *fiber.Ctx) error {
	var req types.SubmitResultRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if req.WorkerID == "" || req.LeaseToken == "" {
		return badRequest(c, "worker_id and lease_token are required")
	}

	err := s.orch.SubmitResult(c.Context(), c.Params("id"), req.WorkerID, req.LeaseToken, req.Output)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(types.AckResponse{Message: "result received"})
}

// getStats handles GET /api/v1/stats
func (s *Server) getStats(c *fiber.Ctx) error {
	snap, err := s.orch.GetStats(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(toStatsResponse(snap))
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}

// errorResponse maps core errors onto HTTP status codes and stable error
// codes that clients can switch on.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrNoWork):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Error:   "no_work",
			Message: err.Error(),
		})
	case orchestrator.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, orchestrator.ErrAlreadyRegistered):
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Error:   "already_registered",
			Message: err.Error(),
		})
	case errors.Is(err, orchestrator.ErrWorkerBusy):
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Error:   "worker_busy",
			Message: err.Error(),
		})
	case errors.Is(err, orchestrator.ErrStaleAssignment):
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Error:   "stale_assignment",
			Message: err.Error(),
		})
	case errors.Is(err, orchestrator.ErrEmptyInput):
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error:   "empty_input",
			Message: err.Error(),
		})
	case errors.Is(err, orchestrator.ErrNotRunning):
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ErrorResponse{
			Error:   "not_running",
			Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
