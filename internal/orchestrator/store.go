package orchestrator

import (
	"context"
	"sync"

	"neuroweave/orchestrator/pkg/types"
)

// State is the single consistency domain shared by all operations: the
// worker, task and work-unit tables plus the pending queue. Every mutating
// operation sees and changes it atomically through Store.Update; partial
// visibility of a multi-field mutation is never possible.
type State struct {
	Workers map[string]*types.Worker
	Tasks   map[string]*types.Task
	Units   map[string]*types.WorkUnit
	Pending *UnitQueue
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Workers: make(map[string]*types.Worker),
		Tasks:   make(map[string]*types.Task),
		Units:   make(map[string]*types.WorkUnit),
		Pending: NewUnitQueue(),
	}
}

// Store provides transactional access to the orchestrator state. The
// orchestrator only requires atomic read-modify-write semantics; the backing
// technology is an implementation choice.
type Store interface {
	// Update runs fn under exclusive access to the state. fn must perform
	// all validation before its first mutation; the in-memory store does
	// not roll back partial writes on error.
	Update(ctx context.Context, fn func(*State) error) error

	// View runs fn under shared read access to the state. fn must not
	// mutate the state.
	View(ctx context.Context, fn func(*State) error) error
}

// MemoryStore implements Store with a single mutex over an in-memory state.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStore creates an in-memory store with empty tables.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: NewState()}
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// View implements Store.
func (s *MemoryStore) View(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}
