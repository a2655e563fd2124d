package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteEchoesWithoutScript(t *testing.T) {
	e := NewExecutor(time.Second)

	out, err := e.Execute(context.Background(), nil, json.RawMessage(`{"a":1,"b":[2,3]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":[2,3]}`, string(out))
}

func TestExecuteExtractsInputPath(t *testing.T) {
	e := NewExecutor(time.Second)

	cfg := json.RawMessage(`{"input_path":"$.samples"}`)
	out, err := e.Execute(context.Background(), cfg, json.RawMessage(`{"samples":[1,2,3],"meta":"x"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, string(out))
}

func TestExecuteInputPathNoMatch(t *testing.T) {
	e := NewExecutor(time.Second)

	cfg := json.RawMessage(`{"input_path":"$.missing"}`)
	_, err := e.Execute(context.Background(), cfg, json.RawMessage(`{"samples":[1]}`))
	assert.Error(t, err)
}

func TestExecuteInputPathMultipleMatches(t *testing.T) {
	e := NewExecutor(time.Second)

	cfg := json.RawMessage(`{"input_path":"$.rows[*].v"}`)
	out, err := e.Execute(context.Background(), cfg, json.RawMessage(`{"rows":[{"v":1},{"v":2}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(out))
}

func TestExecuteRunsScript(t *testing.T) {
	e := NewExecutor(time.Second)

	cfg := json.RawMessage(`{"script":"input.map(function(x){return x*2})","input_path":"$.samples"}`)
	out, err := e.Execute(context.Background(), cfg, json.RawMessage(`{"samples":[1,2,3]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[2,4,6]`, string(out))
}

func TestExecuteScriptError(t *testing.T) {
	e := NewExecutor(time.Second)

	cfg := json.RawMessage(`{"script":"undefinedFunction()"}`)
	_, err := e.Execute(context.Background(), cfg, json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestExecuteScriptTimeout(t *testing.T) {
	e := NewExecutor(50 * time.Millisecond)

	cfg := json.RawMessage(`{"script":"for(;;){}"}`)
	start := time.Now()
	_, err := e.Execute(context.Background(), cfg, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteInvalidModelConfig(t *testing.T) {
	e := NewExecutor(time.Second)

	_, err := e.Execute(context.Background(), json.RawMessage(`not json`), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestExecuteInvalidPayload(t *testing.T) {
	e := NewExecutor(time.Second)

	_, err := e.Execute(context.Background(), nil, json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestNewExecutorDefaultsTimeout(t *testing.T) {
	e := NewExecutor(0)
	assert.Equal(t, 30*time.Second, e.ScriptTimeout)
}
