// Package rest provides the HTTP API for the orchestrator.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/types"
)

// Server represents the REST API server.
type Server struct {
	app    *fiber.App
	orch   *orchestrator.Orchestrator
	config *Config
}

// Config holds the configuration for the REST API server.
type Config struct {
	// Address is the address to listen on (e.g. ":8080").
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// EnableCORS enables Cross-Origin Resource Sharing.
	EnableCORS bool `yaml:"enable_cors"`
}

// DefaultConfig returns a default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		EnableCORS:   false,
	}
}

// NewServer creates a new REST API server on top of the orchestrator.
func NewServer(orch *orchestrator.Orchestrator, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		ErrorHandler: customErrorHandler,
		AppName:      "NeuroWeave Orchestrator",
	})

	server := &Server{
		app:    app,
		orch:   orch,
		config: config,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept",
		}))
	}
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/ready", s.readyCheck)

	api := s.app.Group("/api/v1")

	// Worker registry
	api.Post("/workers/register", s.registerWorker)
	api.Post("/workers/:id/heartbeat", s.workerHeartbeat)
	api.Get("/workers", s.listWorkers)

	// Tasks
	api.Post("/tasks", s.submitTask)
	api.Get("/tasks/:id", s.getTaskStatus)

	// Work units
	api.Post("/work-units/request", s.requestWorkUnit)
	api.Post("/work-units/:id/result", s.submitResult)

	// Stats and events
	api.Get("/stats", s.getStats)
	s.setupEventRoutes()
}

// Start starts the REST API server.
func (s *Server) Start() error {
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the server and shuts it down when ctx is done.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.config.Address)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(types.ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}
