package watch

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

// StatsSnapshot is the dashboard counter set refreshed on the slow poll loop.
type StatsSnapshot struct {
	Assignments     int64     `json:"assignments"`
	StepsOpen       int64     `json:"steps_open"`
	StepsInProcess  int64     `json:"steps_in_process"`
	StepsCompleted  int64     `json:"steps_completed"`
	PendingOnClient int64     `json:"pending_on_client"`
	Comments        int64     `json:"comments"`
	CollectedAt     time.Time `json:"collected_at"`
}

type statsSource interface {
	CollectStats(ctx context.Context) (*StatsSnapshot, error)
}

// StatsCollector caches the latest snapshot in memory. A failed refresh keeps
// the previous snapshot, so the dashboard shows stale data instead of errors.
type StatsCollector struct {
	source statsSource
	logg   *logger.Logger

	mu       sync.RWMutex
	snapshot *StatsSnapshot
}

// NewStatsCollector builds a collector over the given source.
func NewStatsCollector(source statsSource, logg *logger.Logger) (*StatsCollector, error) {
	if source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stats source required")
	}
	return &StatsCollector{source: source, logg: logg}, nil
}

// Refresh fetches a fresh snapshot. It satisfies RunFunc so a Poller can
// drive it on its own interval.
func (c *StatsCollector) Refresh(ctx context.Context) error {
	snapshot, err := c.source.CollectStats(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect dashboard stats")
	}
	snapshot.CollectedAt = time.Now().UTC()

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()
	return nil
}

// Snapshot returns the last successful refresh, or false before the first one
// completes.
func (c *StatsCollector) Snapshot() (StatsSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return StatsSnapshot{}, false
	}
	return *c.snapshot, true
}
