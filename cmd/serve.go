package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"neuroweave/orchestrator/api/rest"
	"neuroweave/orchestrator/internal/config"
	"neuroweave/orchestrator/internal/orchestrator"
	"neuroweave/orchestrator/pkg/logger"
)

var (
	serveAddress          string
	serveLeaseDuration    time.Duration
	serveHeartbeatTimeout time.Duration
	serveMaxAttempts      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orchestrator node",
	Long: `Start the orchestrator node and begin accepting worker registrations
and task submissions.

The orchestrator is the coordination core. It:
  - tracks worker registration and heartbeats
  - decomposes tasks into work units and leases them to workers
  - reclaims units whose leases expire or whose workers go lost
  - aggregates unit results in submission order
  - exposes a REST API and a websocket event stream`,
	Example: `  # Start with defaults
  neuroweave serve

  # Bind a different address
  neuroweave serve --address :9090

  # Tighter lease turnaround
  neuroweave serve --lease-duration 30s --heartbeat-timeout 10s

  # Use a configuration file
  neuroweave serve --config config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveLeaseDuration, "lease-duration", 2*time.Minute, "work unit lease duration")
	serveCmd.Flags().DurationVar(&serveHeartbeatTimeout, "heartbeat-timeout", 30*time.Second, "worker heartbeat timeout")
	serveCmd.Flags().IntVar(&serveMaxAttempts, "max-attempts", 3, "maximum delivery attempts per work unit")
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader = loader.WithConfigPath(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !debug {
		logger.SetLevelFromString(cfg.Logging.Level)
	}

	if cmd.Flags().Changed("address") {
		cfg.Server.Address = serveAddress
	}
	if cmd.Flags().Changed("lease-duration") {
		cfg.Orchestrator.LeaseDuration = serveLeaseDuration
	}
	if cmd.Flags().Changed("heartbeat-timeout") {
		cfg.Orchestrator.HeartbeatTimeout = serveHeartbeatTimeout
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.Orchestrator.MaxAttempts = serveMaxAttempts
	}

	orch, err := orchestrator.New(cfg.Core(), nil)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	server := rest.NewServer(orch, &rest.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		EnableCORS:   cfg.Server.EnableCORS,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if !quiet {
		fmt.Printf(Banner, Version)
		fmt.Println()
		fmt.Printf("  HTTP address:      %s\n", cfg.Server.Address)
		fmt.Printf("  Lease duration:    %s\n", cfg.Orchestrator.LeaseDuration)
		fmt.Printf("  Heartbeat timeout: %s\n", cfg.Orchestrator.HeartbeatTimeout)
		fmt.Printf("  Max attempts:      %d\n", cfg.Orchestrator.MaxAttempts)
		fmt.Println()
	}

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	if err := server.StartWithContext(ctx); err != nil {
		orch.Stop(context.Background())
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := orch.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop orchestrator: %w", err)
	}

	if !quiet {
		fmt.Println("Orchestrator stopped.")
	}
	return nil
}
