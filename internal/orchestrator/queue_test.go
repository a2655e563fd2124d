package orchestrator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestUnitQueueFIFOOrder(t *testing.T) {
	q := NewUnitQueue()

	q.Push("a")
	q.Push("b")
	q.Push("c")
	assert.Equal(t, 3, q.Len())

	id, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", id)

	id, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", id)

	id, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", id)

	_, ok = q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestUnitQueuePushDuplicateIsNoOp(t *testing.T) {
	q := NewUnitQueue()

	q.Push("a")
	q.Push("a")
	q.Push("b")
	q.Push("a")

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{"a", "b"}, q.Snapshot())
}

func TestUnitQueueContains(t *testing.T) {
	q := NewUnitQueue()

	assert.False(t, q.Contains("a"))
	q.Push("a")
	assert.True(t, q.Contains("a"))
	q.Pop()
	assert.False(t, q.Contains("a"))
}

func TestUnitQueueReenqueueAtTail(t *testing.T) {
	q := NewUnitQueue()
	q.Push("a")
	q.Push("b")

	id, _ := q.Pop()
	require.Equal(t, "a", id)

	// A reclaimed unit goes behind units that never left the queue.
	q.Push("a")
	assert.Equal(t, []string{"b", "a"}, q.Snapshot())
}

func TestUnitQueueGrowsPastInitialCapacity(t *testing.T) {
	q := NewUnitQueue()

	// Interleave pops so the ring wraps before it grows.
	for i := 0; i < 10; i++ {
		q.Push(fmt.Sprintf("w%d", i))
	}
	for i := 0; i < 10; i++ {
		q.Pop()
	}

	want := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("u%d", i)
		q.Push(id)
		want = append(want, id)
	}

	assert.Equal(t, 50, q.Len())
	assert.Equal(t, want, q.Snapshot())

	for i := 0; i < 50; i++ {
		id, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want[i], id)
	}
}

// TestUnitQueueModel checks the queue against a plain slice model under
// random operation sequences.
func TestUnitQueueModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := NewUnitQueue()
		var model []string
		inModel := func(id string) bool {
			for _, m := range model {
				if m == id {
					return true
				}
			}
			return false
		}

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				id := rapid.StringMatching(`u[0-9]{1,2}`).Draw(t, "id")
				q.Push(id)
				if !inModel(id) {
					model = append(model, id)
				}
			},
			"pop": func(t *rapid.T) {
				id, ok := q.Pop()
				if len(model) == 0 {
					if ok {
						t.Fatalf("pop on empty queue returned %q", id)
					}
					return
				}
				if !ok {
					t.Fatalf("pop returned empty, want %q", model[0])
				}
				if id != model[0] {
					t.Fatalf("pop returned %q, want %q", id, model[0])
				}
				model = model[1:]
			},
			"": func(t *rapid.T) {
				if q.Len() != len(model) {
					t.Fatalf("queue length %d, model length %d", q.Len(), len(model))
				}
				snap := q.Snapshot()
				for i := range model {
					if snap[i] != model[i] {
						t.Fatalf("snapshot[%d] = %q, model %q", i, snap[i], model[i])
					}
				}
			},
		})
	})
}
