package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"neuroweave/orchestrator/internal/config"
	"neuroweave/orchestrator/internal/worker"
	"neuroweave/orchestrator/pkg/logger"
)

var (
	workerOrchestratorURL   string
	workerAddress           string
	workerCapabilities      []string
	workerHeartbeatInterval time.Duration
	workerPollInterval      time.Duration
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start a worker node",
	Long: `Start a worker node that pulls work units from an orchestrator,
executes them and submits results. The worker heartbeats on a fixed
interval so the orchestrator keeps it registered as alive.`,
	Example: `  # Connect to a local orchestrator
  neuroweave worker

  # Connect to a remote orchestrator
  neuroweave worker --orchestrator http://orchestrator:8080

  # Advertise capabilities
  neuroweave worker --capabilities script,gpu`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVar(&workerOrchestratorURL, "orchestrator", "http://localhost:8080", "orchestrator base URL")
	workerCmd.Flags().StringVar(&workerAddress, "address", "localhost:8081", "advertised worker address")
	workerCmd.Flags().StringSliceVar(&workerCapabilities, "capabilities", []string{"script"}, "advertised capability tags")
	workerCmd.Flags().DurationVar(&workerHeartbeatInterval, "heartbeat-interval", 10*time.Second, "heartbeat interval")
	workerCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", 2*time.Second, "idle poll interval")
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	if cmd.Flags().Changed("orchestrator") {
		cfg.Worker.OrchestratorURL = workerOrchestratorURL
	}
	if cmd.Flags().Changed("address") {
		cfg.Worker.Address = workerAddress
	}
	if cmd.Flags().Changed("capabilities") {
		cfg.Worker.Capabilities = workerCapabilities
	}
	if cmd.Flags().Changed("heartbeat-interval") {
		cfg.Worker.HeartbeatInterval = workerHeartbeatInterval
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.Worker.PollInterval = workerPollInterval
	}

	w := worker.New(&worker.Config{
		OrchestratorURL:   cfg.Worker.OrchestratorURL,
		Address:           cfg.Worker.Address,
		Capabilities:      cfg.Worker.Capabilities,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
		PollInterval:      cfg.Worker.PollInterval,
		RequestTimeout:    cfg.Worker.RequestTimeout,
		ScriptTimeout:     cfg.Worker.ScriptTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down worker...")
		cancel()
	}()

	if !quiet {
		fmt.Printf(Banner, Version)
		fmt.Println()
		fmt.Printf("  Orchestrator: %s\n", cfg.Worker.OrchestratorURL)
		fmt.Printf("  Address:      %s\n", cfg.Worker.Address)
		fmt.Printf("  Capabilities: %v\n", cfg.Worker.Capabilities)
		fmt.Println()
	}

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("worker error: %w", err)
	}

	if !quiet {
		fmt.Println("Worker stopped.")
	}
	return nil
}
