package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// fakeRefresher records every refresh call and can fail selected AWBs.
type fakeRefresher struct {
	mu        sync.Mutex
	refreshed []string
	failAWBs  map[string]error
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{failAWBs: make(map[string]error)}
}

func (f *fakeRefresher) RefreshPrediction(_ context.Context, awb string) (*domain.ETAPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, awb)
	if err, ok := f.failAWBs[awb]; ok {
		return nil, err
	}
	return &domain.ETAPrediction{AWB: awb, IsActive: true}, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDispatcherProcessesEnqueuedJobs(t *testing.T) {
	refresher := newFakeRefresher()
	d := NewDispatcher(4, refresher, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	awbs := []string{"AWB-1", "AWB-2", "AWB-3", "AWB-4", "AWB-5"}
	d.EnqueueBatch(awbs)

	waitFor(t, 2*time.Second, func() bool { return refresher.count() == len(awbs) })
}

func TestDispatcherShardingIsDeterministic(t *testing.T) {
	d := NewDispatcher(4, newFakeRefresher(), zerolog.Nop())

	for _, awb := range []string{"AWB-1", "AWB-2", "ZZ-999", ""} {
		idx := d.shardIndex(awb)
		if idx < 0 || idx >= len(d.workers) {
			t.Errorf("shardIndex(%q) = %d, out of range", awb, idx)
		}
		for i := 0; i < 10; i++ {
			if d.shardIndex(awb) != idx {
				t.Fatalf("shardIndex(%q) not stable", awb)
			}
		}
	}
}

func TestDispatcherDefaultsWorkerCount(t *testing.T) {
	d := NewDispatcher(0, newFakeRefresher(), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Errorf("workers = %d, want default %d", len(d.workers), defaultWorkers)
	}
}

func TestDispatcherContinuesAfterFailures(t *testing.T) {
	refresher := newFakeRefresher()
	refresher.failAWBs["AWB-BAD"] = errors.New("write concern timeout")
	refresher.failAWBs["AWB-DONE"] = domain.ErrShipmentTerminal

	d := NewDispatcher(1, refresher, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.EnqueueBatch([]string{"AWB-BAD", "AWB-DONE", "AWB-OK"})

	waitFor(t, 2*time.Second, func() bool { return refresher.count() == 3 })
}
