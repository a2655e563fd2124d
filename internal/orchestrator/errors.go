package orchestrator

import "errors"

var (
	// ErrUnknownWorker is returned when a worker ID is not registered.
	ErrUnknownWorker = errors.New("worker not registered")

	// ErrUnknownTask is returned when a task ID does not exist.
	ErrUnknownTask = errors.New("task not found")

	// ErrUnknownWorkUnit is returned when a work unit ID does not exist.
	ErrUnknownWorkUnit = errors.New("work unit not found")

	// ErrAlreadyRegistered is returned when a registration collides with an
	// existing worker ID.
	ErrAlreadyRegistered = errors.New("worker already registered")

	// ErrWorkerBusy is returned when a worker holding an active lease
	// requests another unit.
	ErrWorkerBusy = errors.New("worker already holds a lease")

	// ErrStaleAssignment is returned when a submitted result carries a lease
	// token that no longer matches the unit's current assignment.
	ErrStaleAssignment = errors.New("stale assignment")

	// ErrNoWork is returned when the pending queue is empty. It is an
	// expected steady-state condition, not a failure.
	ErrNoWork = errors.New("no pending work units")

	// ErrEmptyInput is returned when a task submission carries no data chunks.
	ErrEmptyInput = errors.New("task submission has no data chunks")

	// ErrNotRunning is returned when an operation is invoked on a stopped
	// orchestrator.
	ErrNotRunning = errors.New("orchestrator not running")
)

// IsNotFound reports whether err identifies a stale or invalid identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownWorker) ||
		errors.Is(err, ErrUnknownTask) ||
		errors.Is(err, ErrUnknownWorkUnit)
}

// IsConflict reports whether err is a concurrency or protocol race the
// caller may retry at a higher level.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrWorkerBusy) ||
		errors.Is(err, ErrStaleAssignment)
}
