package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Executor evaluates a work unit's payload against the task's model config.
// The config is a JSON object with two optional fields:
//
//	script     JavaScript expression evaluated with the extracted input
//	           bound to the `input` global; its value becomes the output
//	input_path JSONPath selecting the input from the chunk payload
//	           (defaults to "$", the whole chunk)
//
// Without a script the extracted input is echoed back, which keeps the
// executor usable for plumbing tests.
type Executor struct {
	// ScriptTimeout bounds a single script evaluation.
	ScriptTimeout time.Duration
}

// NewExecutor creates an executor with the given script timeout.
func NewExecutor(scriptTimeout time.Duration) *Executor {
	if scriptTimeout <= 0 {
		scriptTimeout = 30 * time.Second
	}
	return &Executor{ScriptTimeout: scriptTimeout}
}

type executorConfig struct {
	Script    string `json:"script"`
	InputPath string `json:"input_path"`
}

// Execute runs one work unit and returns the JSON-encoded output.
func (e *Executor) Execute(ctx context.Context, modelConfig, payload json.RawMessage) (json.RawMessage, error) {
	var cfg executorConfig
	if len(modelConfig) > 0 {
		if err := json.Unmarshal(modelConfig, &cfg); err != nil {
			return nil, fmt.Errorf("invalid model config: %w", err)
		}
	}

	input, err := extractInput(payload, cfg.InputPath)
	if err != nil {
		return nil, err
	}

	if cfg.Script == "" {
		return marshalOutput(input)
	}

	value, err := e.runScript(ctx, cfg.Script, input)
	if err != nil {
		return nil, err
	}
	return marshalOutput(value)
}

// extractInput applies the configured JSONPath to the chunk payload.
func extractInput(payload json.RawMessage, path string) (interface{}, error) {
	data, err := oj.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if path == "" || path == "$" {
		return data, nil
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid input_path %q: %w", path, err)
	}

	matches := expr.Get(data)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("input_path %q matched nothing", path)
	case 1:
		return matches[0], nil
	default:
		return matches, nil
	}
}

// runScript evaluates the expression with `input` bound, interrupting the
// VM when the timeout or the caller's context lapses.
func (e *Executor) runScript(ctx context.Context, script string, input interface{}) (interface{}, error) {
	vm := goja.New()
	if err := vm.Set("input", input); err != nil {
		return nil, fmt.Errorf("failed to bind input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.ScriptTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			vm.Interrupt("script timed out")
		case <-done:
		}
	}()

	val, err := vm.RunString(script)
	close(done)
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("script timed out after %v", e.ScriptTimeout)
		}
		return nil, fmt.Errorf("script failed: %w", err)
	}

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

func marshalOutput(value interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return data, nil
}
