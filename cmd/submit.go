package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"neuroweave/orchestrator/api/rest/client"
	"neuroweave/orchestrator/pkg/types"
)

var (
	submitOrchestratorURL string
	submitWait            bool
	submitPollInterval    time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit <task-file>",
	Short: "Submit a task to the orchestrator",
	Long: `Submit a task described by a YAML or JSON file. The file names the
task, carries an optional model configuration and lists the input
chunks; the orchestrator decomposes each chunk into a work unit.`,
	Example: `  # Submit and return immediately
  neuroweave submit task.yaml

  # Submit and wait for completion
  neuroweave submit task.yaml --wait

  # Submit to a remote orchestrator
  neuroweave submit task.json --orchestrator http://orchestrator:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

// taskFile mirrors SubmitTaskRequest with YAML-friendly field types.
type taskFile struct {
	TaskName    string        `yaml:"task_name" json:"task_name"`
	ModelConfig interface{}   `yaml:"model_config" json:"model_config"`
	DataInput   []interface{} `yaml:"data_input" json:"data_input"`
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitOrchestratorURL, "orchestrator", "http://localhost:8080", "orchestrator base URL")
	submitCmd.Flags().BoolVarP(&submitWait, "wait", "w", false, "wait for the task to finish")
	submitCmd.Flags().DurationVar(&submitPollInterval, "poll-interval", time.Second, "status poll interval when waiting")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	req, err := loadTaskFile(args[0])
	if err != nil {
		return err
	}

	cl := client.New(&client.Config{OrchestratorURL: submitOrchestratorURL})

	task, err := cl.SubmitTask(req)
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	if !quiet {
		fmt.Printf("Task submitted: %s (%d work units)\n", task.TaskID, len(task.WorkUnitIDs))
	}

	if !submitWait {
		fmt.Println(task.TaskID)
		return nil
	}

	return waitForTask(cl, task.TaskID)
}

func loadTaskFile(path string) (*types.SubmitTaskRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var tf taskFile
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("invalid JSON task file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("invalid YAML task file: %w", err)
		}
	}

	if tf.TaskName == "" {
		return nil, fmt.Errorf("task file must set task_name")
	}
	if len(tf.DataInput) == 0 {
		return nil, fmt.Errorf("task file must list at least one data_input chunk")
	}

	req := &types.SubmitTaskRequest{TaskName: tf.TaskName}

	if tf.ModelConfig != nil {
		raw, err := json.Marshal(tf.ModelConfig)
		if err != nil {
			return nil, fmt.Errorf("invalid model_config: %w", err)
		}
		req.ModelConfig = raw
	}

	req.DataInput = make([]json.RawMessage, 0, len(tf.DataInput))
	for i, chunk := range tf.DataInput {
		raw, err := json.Marshal(chunk)
		if err != nil {
			return nil, fmt.Errorf("invalid data_input chunk %d: %w", i, err)
		}
		req.DataInput = append(req.DataInput, raw)
	}

	return req, nil
}

func waitForTask(cl *client.Client, taskID string) error {
	for {
		task, err := cl.GetTask(taskID)
		if err != nil {
			return fmt.Errorf("failed to poll task: %w", err)
		}

		switch task.Status {
		case string(types.TaskCompleted):
			out, err := json.MarshalIndent(task.AggregatedResult, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		case string(types.TaskFailed):
			return fmt.Errorf("task %s failed", taskID)
		}

		time.Sleep(submitPollInterval)
	}
}
