package watch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
	"github.com/rvillegas/onboardtrack-backend/pkg/metrics"
)

const defaultInterval = 5 * time.Second

// RunFunc performs one poll pass. Errors are logged and retried on the next
// tick, never propagated out of the loop.
type RunFunc func(ctx context.Context) error

// PollerParams configure a polling loop.
type PollerParams struct {
	Name     string
	Interval time.Duration
	Run      RunFunc
	Logger   *logger.Logger
	Metrics  *metrics.PollerMetrics
	Lock     Lock
}

// Poller drives a RunFunc on a fixed cadence. Cycles run synchronously inside
// the loop, so at most one is in flight at a time. The loop can be paused and
// resumed without losing any state held by the RunFunc's collaborators.
type Poller struct {
	name     string
	interval time.Duration
	run      RunFunc
	logg     *logger.Logger
	metrics  *metrics.PollerMetrics
	lock     Lock
	paused   atomic.Bool
}

// NewPoller builds a polling loop.
func NewPoller(params PollerParams) (*Poller, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Run == nil {
		return nil, fmt.Errorf("run func required")
	}
	name := params.Name
	if name == "" {
		name = "poller"
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		name:     name,
		interval: interval,
		run:      params.Run,
		logg:     params.Logger,
		metrics:  params.Metrics,
		lock:     params.Lock,
	}, nil
}

// Pause skips cycles until Resume is called. Accumulated seen timestamps and
// notifications are untouched while paused.
func (p *Poller) Pause() {
	p.paused.Store(true)
}

// Resume re-enables cycles after a pause.
func (p *Poller) Resume() {
	p.paused.Store(false)
}

// Paused reports whether the loop is currently skipping cycles.
func (p *Poller) Paused() bool {
	return p.paused.Load()
}

// Run executes cycles until the context is canceled. The first cycle fires
// immediately rather than waiting one full interval.
func (p *Poller) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = p.logg.WithField(ctx, "loop", p.name)
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logg.Info(ctx, "poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if p.paused.Load() {
		return
	}
	if p.lock != nil {
		locked, err := p.lock.Acquire(ctx)
		if err != nil {
			p.logg.Error(ctx, "poll lock acquire failed", err)
			p.metrics.IncFailure(p.name)
			return
		}
		if !locked {
			return
		}
		defer func() {
			if err := p.lock.Release(ctx); err != nil {
				p.logg.Error(ctx, "poll lock release failed", err)
			}
		}()
	}

	start := time.Now()
	err := p.run(ctx)
	p.metrics.ObserveCycle(p.name, time.Since(start))
	if err != nil {
		// Transient fetch failures degrade to stale data; the next
		// tick retries at the normal interval.
		p.logg.Error(ctx, "poll cycle failed", err)
		p.metrics.IncFailure(p.name)
		return
	}
	p.metrics.IncSuccess(p.name)
}
