package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"neuroweave/orchestrator/pkg/types"
)

// Property: for any task size and any order in which workers finish, the
// aggregated result lists the per-unit outputs in submission order.
func TestAggregationOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("aggregated result preserves submission order", prop.ForAll(
		func(n int, seed int64) bool {
			ctx := context.Background()
			orch, err := New(DefaultConfig(), nil)
			if err != nil {
				return false
			}
			orch.config.SweepInterval = time.Hour
			if err := orch.Start(ctx); err != nil {
				return false
			}
			defer orch.Stop(ctx)

			chunks := make([]json.RawMessage, n)
			for i := range chunks {
				chunks[i] = json.RawMessage(fmt.Sprintf(`%d`, i))
			}
			task, err := orch.SubmitTask(ctx, types.TaskSubmission{Name: "prop", DataInput: chunks})
			if err != nil {
				return false
			}

			// Each unit gets its own worker so all leases can be live at
			// once and results can land in any order.
			type lease struct {
				unitID   string
				workerID string
				token    string
			}
			leases := make([]lease, 0, n)
			for i := 0; i < n; i++ {
				w, err := orch.RegisterWorker(ctx, "", "localhost:0", nil)
				if err != nil {
					return false
				}
				u, err := orch.RequestWorkUnit(ctx, w.ID)
				if err != nil {
					return false
				}
				leases = append(leases, lease{unitID: u.ID, workerID: w.ID, token: u.Assignment.LeaseToken})
			}

			order := rand.New(rand.NewSource(seed)).Perm(n)
			for _, i := range order {
				l := leases[i]
				output := json.RawMessage(fmt.Sprintf(`"out-%s"`, l.unitID))
				if err := orch.SubmitResult(ctx, l.unitID, l.workerID, l.token, output); err != nil {
					return false
				}
			}

			got, err := orch.GetTaskStatus(ctx, task.ID)
			if err != nil || got.Status != types.TaskCompleted {
				return false
			}
			if len(got.AggregatedResult) != n {
				return false
			}
			for i, unitID := range task.WorkUnitIDs {
				if string(got.AggregatedResult[i]) != fmt.Sprintf(`"out-%s"`, unitID) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// Property: concurrent work requests never lease the same unit twice, and
// exactly min(workers, units) leases are granted.
func TestLeaseExclusivityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("no unit is leased to two workers", prop.ForAll(
		func(workerCount, unitCount int) bool {
			ctx := context.Background()
			orch, err := New(DefaultConfig(), nil)
			if err != nil {
				return false
			}
			orch.config.SweepInterval = time.Hour
			if err := orch.Start(ctx); err != nil {
				return false
			}
			defer orch.Stop(ctx)

			chunks := make([]json.RawMessage, unitCount)
			for i := range chunks {
				chunks[i] = json.RawMessage(`{}`)
			}
			if _, err := orch.SubmitTask(ctx, types.TaskSubmission{Name: "prop", DataInput: chunks}); err != nil {
				return false
			}

			workerIDs := make([]string, workerCount)
			for i := range workerIDs {
				w, err := orch.RegisterWorker(ctx, "", "localhost:0", nil)
				if err != nil {
					return false
				}
				workerIDs[i] = w.ID
			}

			var mu sync.Mutex
			granted := make([]string, 0, workerCount)
			var wg sync.WaitGroup
			for _, id := range workerIDs {
				wg.Add(1)
				go func(workerID string) {
					defer wg.Done()
					u, err := orch.RequestWorkUnit(ctx, workerID)
					if err != nil {
						return
					}
					mu.Lock()
					granted = append(granted, u.ID)
					mu.Unlock()
				}(id)
			}
			wg.Wait()

			want := workerCount
			if unitCount < want {
				want = unitCount
			}
			if len(granted) != want {
				return false
			}
			seen := make(map[string]bool, len(granted))
			for _, id := range granted {
				if seen[id] {
					return false
				}
				seen[id] = true
			}
			return true
		},
		gen.IntRange(1, 10),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
