package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultTickInterval is the recommended drive period for a TimerEngine.
const DefaultTickInterval = 100 * time.Millisecond

// Driver feeds wall-clock time into a TimerEngine on a fixed period. The
// engine itself never reads a clock; the driver measures elapsed time
// between ticks and hands it to Advance, which is inert while the clock is
// paused. A clockwork.Clock supplies the time source so tests can drive the
// loop with a fake clock.
type Driver struct {
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewDriver creates a driver. A zero or negative interval falls back to
// DefaultTickInterval.
func NewDriver(clock clockwork.Clock, interval time.Duration, logger *zap.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Driver{
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run drives the engine until ctx is cancelled. Elapsed time is measured
// between ticks rather than assumed equal to the interval, so scheduling
// jitter never loses or invents time.
func (d *Driver) Run(ctx context.Context, engine *TimerEngine) {
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	last := d.clock.Now()
	d.logger.Debug("clock driver started",
		zap.String("game_id", engine.ID()),
		zap.Duration("interval", d.interval),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("clock driver stopped", zap.String("game_id", engine.ID()))
			return
		case <-ticker.Chan():
			now := d.clock.Now()
			elapsed := now.Sub(last)
			last = now
			if elapsed > 0 {
				engine.Advance(elapsed)
			}
		}
	}
}
