package orchestrator

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats accumulates orchestration counters and a histogram of
// assignment-to-completion latency per work unit.
type Stats struct {
	mu         sync.Mutex
	assigned   int64
	completed  int64
	reclaimed  int64
	failed     int64
	turnaround *hdrhistogram.Histogram
}

// turnaround values are recorded in milliseconds, up to one hour.
const maxTurnaroundMs = 3600 * 1000

func newStats() *Stats {
	return &Stats{
		turnaround: hdrhistogram.New(1, maxTurnaroundMs, 3),
	}
}

func (st *Stats) recordAssigned() {
	st.mu.Lock()
	st.assigned++
	st.mu.Unlock()
}

func (st *Stats) recordCompleted(turnaround time.Duration) {
	st.mu.Lock()
	st.completed++
	ms := turnaround.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if ms > maxTurnaroundMs {
		ms = maxTurnaroundMs
	}
	_ = st.turnaround.RecordValue(ms)
	st.mu.Unlock()
}

func (st *Stats) recordReclaimed(n int) {
	st.mu.Lock()
	st.reclaimed += int64(n)
	st.mu.Unlock()
}

func (st *Stats) recordFailed(n int) {
	st.mu.Lock()
	st.failed += int64(n)
	st.mu.Unlock()
}

// StatsSnapshot is a point-in-time view of orchestrator activity.
type StatsSnapshot struct {
	Workers      int
	WorkersLost  int
	TasksActive  int
	PendingUnits int

	UnitsAssigned  int64
	UnitsCompleted int64
	UnitsReclaimed int64
	UnitsFailed    int64

	TurnaroundMsP50 int64
	TurnaroundMsP95 int64
	TurnaroundMsP99 int64
	TurnaroundMsMax int64
}

// snapshot fills the counter and latency fields; the caller adds the state
// gauges.
func (st *Stats) snapshot() StatsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := StatsSnapshot{
		UnitsAssigned:  st.assigned,
		UnitsCompleted: st.completed,
		UnitsReclaimed: st.reclaimed,
		UnitsFailed:    st.failed,
	}
	if st.turnaround.TotalCount() > 0 {
		snap.TurnaroundMsP50 = st.turnaround.ValueAtQuantile(50)
		snap.TurnaroundMsP95 = st.turnaround.ValueAtQuantile(95)
		snap.TurnaroundMsP99 = st.turnaround.ValueAtQuantile(99)
		snap.TurnaroundMsMax = st.turnaround.Max()
	}
	return snap
}
