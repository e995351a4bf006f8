package game

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDriverFeedsElapsedTime(t *testing.T) {
	fc := clockwork.NewFakeClock()
	driver := NewDriver(fc, 100*time.Millisecond, zap.NewNop())
	engine := newTestEngine(t, testConfig())
	engine.ToggleRunning()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		driver.Run(ctx, engine)
		close(done)
	}()

	// Wait for the driver to register its ticker before moving the clock.
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		return engine.Snapshot().TurnRemainingMs == 119900
	}, time.Second, time.Millisecond)

	fc.Advance(100 * time.Millisecond)
	fc.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		return engine.Snapshot().TurnRemainingMs == 119700
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop on context cancellation")
	}
}

func TestDriverIsInertWhilePaused(t *testing.T) {
	fc := clockwork.NewFakeClock()
	driver := NewDriver(fc, 100*time.Millisecond, zap.NewNop())
	engine := newTestEngine(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		driver.Run(ctx, engine)
		close(done)
	}()

	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(500 * time.Millisecond)

	// Ticks keep flowing but a paused engine must not consume time.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(120000), engine.Snapshot().TurnRemainingMs)

	cancel()
	<-done
}

func TestDriverDefaultsInterval(t *testing.T) {
	driver := NewDriver(clockwork.NewRealClock(), 0, zap.NewNop())
	assert.Equal(t, DefaultTickInterval, driver.interval)
}
