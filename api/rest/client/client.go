// Package client implements the HTTP client worker nodes use to talk to
// the orchestrator.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/types"
)

// Config holds the configuration for the orchestrator client.
type Config struct {
	// OrchestratorURL is the base URL of the orchestrator (e.g. "http://localhost:8080").
	OrchestratorURL string

	// RequestTimeout is the timeout for HTTP requests.
	RequestTimeout time.Duration
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() *Config {
	return &Config{
		OrchestratorURL: "http://localhost:8080",
		RequestTimeout:  15 * time.Second,
	}
}

// Client is a typed HTTP client for the orchestrator API. API error codes
// are mapped back onto the core sentinel errors, so callers can use
// errors.Is the same way they would against the orchestrator directly.
type Client struct {
	config *Config
	agent  *fiber.Client
}

// New creates a new orchestrator client.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		agent:  fiber.AcquireClient(),
	}
}

// Ping checks the orchestrator's health endpoint.
func (c *Client) Ping() error {
	req := c.agent.Get(c.config.OrchestratorURL + "/health")
	req.Timeout(c.config.RequestTimeout)

	statusCode, _, errs := req.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("failed to reach orchestrator: %v", errs[0])
	}
	if statusCode != fiber.StatusOK {
		return fmt.Errorf("orchestrator health check failed with status: %d", statusCode)
	}
	return nil
}

// RegisterWorker registers a worker and returns its record.
func (c *Client) RegisterWorker(req *types.RegisterWorkerRequest) (*types.WorkerResponse, error) {
	var resp types.WorkerResponse
	if err := c.post("/api/v1/workers/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Heartbeat refreshes the worker's liveness.
func (c *Client) Heartbeat(workerID string) error {
	return c.post("/api/v1/workers/"+workerID+"/heartbeat", nil, nil)
}

// SubmitTask submits a task for distributed execution.
func (c *Client) SubmitTask(req *types.SubmitTaskRequest) (*types.TaskResponse, error) {
	var resp types.TaskResponse
	if err := c.post("/api/v1/tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask returns a task snapshot.
func (c *Client) GetTask(taskID string) (*types.TaskResponse, error) {
	var resp types.TaskResponse
	if err := c.get("/api/v1/tasks/"+taskID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestWorkUnit asks for the next pending unit. When the queue is empty
// the returned error matches orchestrator.ErrNoWork.
func (c *Client) RequestWorkUnit(workerID string) (*types.WorkUnitResponse, error) {
	var resp types.WorkUnitResponse
	err := c.post("/api/v1/work-units/request", &types.RequestUnitRequest{WorkerID: workerID}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitResult submits the output for a leased unit.
func (c *Client) SubmitResult(unitID string, req *types.SubmitResultRequest) error {
	return c.post("/api/v1/work-units/"+unitID+"/result", req, nil)
}

// GetStats returns orchestrator counters and latency percentiles.
func (c *Client) GetStats() (*types.StatsResponse, error) {
	var resp types.StatsResponse
	if err := c.get("/api/v1/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(path string, body, out interface{}) error {
	req := c.agent.Post(c.config.OrchestratorURL + path)
	req.Timeout(c.config.RequestTimeout)
	req.Set("Content-Type", "application/json")
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		req.Body(data)
	}
	return c.do(req, out)
}

func (c *Client) get(path string, out interface{}) error {
	req := c.agent.Get(c.config.OrchestratorURL + path)
	req.Timeout(c.config.RequestTimeout)
	return c.do(req, out)
}

func (c *Client) do(req *fiber.Agent, out interface{}) error {
	statusCode, respBody, errs := req.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %v", errs[0])
	}

	if statusCode >= 400 {
		return apiError(statusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// apiError converts an API error body back into a core sentinel error.
func apiError(statusCode int, body []byte) error {
	var errResp types.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("request failed with status %d", statusCode)
	}

	switch errResp.Error {
	case "no_work":
		return orchestrator.ErrNoWork
	case "worker_busy":
		return fmt.Errorf("%w: %s", orchestrator.ErrWorkerBusy, errResp.Message)
	case "stale_assignment":
		return fmt.Errorf("%w: %s", orchestrator.ErrStaleAssignment, errResp.Message)
	case "already_registered":
		return fmt.Errorf("%w: %s", orchestrator.ErrAlreadyRegistered, errResp.Message)
	case "empty_input":
		return fmt.Errorf("%w: %s", orchestrator.ErrEmptyInput, errResp.Message)
	case "not_found":
		return fmt.Errorf("%w: %s", notFoundError(errResp.Message), errResp.Message)
	default:
		return fmt.Errorf("request failed (%d): %s", statusCode, errResp.Message)
	}
}

// notFoundError picks the sentinel matching the server-side message.
func notFoundError(message string) error {
	switch {
	case strings.Contains(message, "work unit"):
		return orchestrator.ErrUnknownWorkUnit
	case strings.Contains(message, "worker"):
		return orchestrator.ErrUnknownWorker
	default:
		return orchestrator.ErrUnknownTask
	}
}
