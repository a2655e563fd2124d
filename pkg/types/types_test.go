package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerCloneIsDeep(t *testing.T) {
	w := &Worker{
		ID:           "w1",
		Capabilities: []string{"script"},
		Status:       WorkerAvailable,
	}

	c := w.Clone()
	c.Capabilities[0] = "mutated"
	c.Status = WorkerLost

	assert.Equal(t, "script", w.Capabilities[0])
	assert.Equal(t, WorkerAvailable, w.Status)
}

func TestTaskCloneIsDeep(t *testing.T) {
	task := &Task{
		ID:               "t1",
		WorkUnitIDs:      []string{"u1", "u2"},
		AggregatedResult: []json.RawMessage{json.RawMessage(`1`)},
	}

	c := task.Clone()
	c.WorkUnitIDs[0] = "mutated"
	c.AggregatedResult[0] = json.RawMessage(`2`)

	assert.Equal(t, "u1", task.WorkUnitIDs[0])
	assert.Equal(t, `1`, string(task.AggregatedResult[0]))
}

func TestWorkUnitCloneCopiesAssignment(t *testing.T) {
	u := &WorkUnit{
		ID:         "u1",
		Status:     UnitAssigned,
		Assignment: &Assignment{WorkerID: "w1", LeaseToken: "tok"},
	}

	c := u.Clone()
	c.Assignment.LeaseToken = "mutated"

	assert.Equal(t, "tok", u.Assignment.LeaseToken)
}

func TestEventJSONShape(t *testing.T) {
	ev := Event{
		Type:       EventUnitReclaimed,
		TaskID:     "t1",
		WorkUnitID: "u1",
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "unit_reclaimed", decoded["type"])
	assert.Equal(t, "t1", decoded["task_id"])
	assert.NotContains(t, decoded, "worker_id")
}
