package telemetry

import (
	"context"
	"sync"

	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
)

// Coordinator is the shared view of worker liveness. Workers publish
// every status transition through it, and consult AnyRunning when the
// queue drains: an idle worker may only stop once no peer is RUNNING,
// which guarantees the swarm never quits while a peer might still be
// producing new URLs.
type Coordinator struct {
	mu     sync.Mutex
	status *database.StatusRepository
}

// NewCoordinator truncates any status rows left over from a previous run.
func NewCoordinator(ctx context.Context, status *database.StatusRepository) (*Coordinator, error) {
	if err := status.Truncate(ctx); err != nil {
		return nil, err
	}

	return &Coordinator{status: status}, nil
}

// Publish upserts a worker's status row. Workers must publish RUNNING
// before consulting AnyRunning so they always count themselves.
func (c *Coordinator) Publish(ctx context.Context, worker, status string, runningTime int64, counters domain.Counters) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status.Upsert(ctx, &domain.WorkerStatus{
		Worker:      worker,
		Status:      status,
		RunningTime: runningTime,
		Parsed:      counters.Parsed,
		Added:       counters.Added,
		Downloaded:  counters.Downloaded,
	})
}

// AnyRunning reports whether at least one worker is published as RUNNING.
func (c *Coordinator) AnyRunning(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.status.CountRunning(ctx)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Statuses returns the final status rows for the run summary.
func (c *Coordinator) Statuses(ctx context.Context) ([]domain.WorkerStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status.List(ctx)
}
