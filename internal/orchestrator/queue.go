package orchestrator

// UnitQueue is a FIFO queue of pending work-unit IDs backed by a ring
// buffer, with O(1) enqueue and dequeue. The queue holds exactly the IDs of
// units currently in state Pending, with no duplicates; reclaimed units are
// re-enqueued at the tail so they cannot starve other pending units.
type UnitQueue struct {
	buf     []string
	head    int
	n       int
	members map[string]struct{}
}

// NewUnitQueue creates an empty unit queue.
func NewUnitQueue() *UnitQueue {
	return &UnitQueue{
		buf:     make([]string, 16),
		members: map[string]struct{}{},
	}
}

// Len returns the number of queued unit IDs.
func (q *UnitQueue) Len() int {
	return q.n
}

// Contains reports whether the given unit ID is queued.
func (q *UnitQueue) Contains(id string) bool {
	_, ok := q.members[id]
	return ok
}

// Push appends a unit ID at the tail. Pushing an ID that is already queued
// is a no-op, preserving the no-duplicates invariant.
func (q *UnitQueue) Push(id string) {
	if _, ok := q.members[id]; ok {
		return
	}
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = id
	q.n++
	q.members[id] = struct{}{}
}

// Pop removes and returns the head unit ID. The second return value is
// false when the queue is empty.
func (q *UnitQueue) Pop() (string, bool) {
	if q.n == 0 {
		return "", false
	}
	id := q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	delete(q.members, id)
	return id, true
}

// Snapshot returns the queued IDs in FIFO order.
func (q *UnitQueue) Snapshot() []string {
	out := make([]string, q.n)
	for i := 0; i < q.n; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

func (q *UnitQueue) grow() {
	next := make([]string, len(q.buf)*2)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
