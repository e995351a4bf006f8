package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/game/timer"
)

func testConfig() timer.GameConfig {
	return timer.GameConfig{
		TurnDuration:    2 * time.Minute,
		ReserveDuration: time.Minute,
		PlayerNames:     []string{"Alice", "Bob", "Carol"},
	}
}

func newTestEngine(t *testing.T, cfg timer.GameConfig) *TimerEngine {
	t.Helper()
	engine, err := NewTimerEngine("test-game", cfg, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestNewTimerEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDuration = 0
	_, err := NewTimerEngine("bad", cfg, zap.NewNop())
	require.ErrorIs(t, err, timer.ErrInvalidConfig)
}

func TestEliminationEventFiresExactlyOnce(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var eliminations []Event
	engine.Events().SubscribeTyped(EventPlayerEliminated, func(evt Event) {
		eliminations = append(eliminations, evt)
	})

	engine.ToggleRunning()
	engine.Advance(2 * time.Minute) // turn budget gone
	engine.Advance(time.Minute)     // reserve gone

	require.Len(t, eliminations, 1)
	assert.Equal(t, 0, eliminations[0].PlayerIndex)
	assert.Equal(t, "test-game", eliminations[0].GameID)
	assert.False(t, eliminations[0].Running, "elimination must stop the clock")

	// Further advancing, even after restarting the clock, never repeats the
	// elimination.
	engine.ToggleRunning()
	engine.Advance(time.Minute)
	assert.Len(t, eliminations, 1)
}

func TestReserveEnteredEvent(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var entered []Event
	engine.Events().SubscribeTyped(EventReserveEntered, func(evt Event) {
		entered = append(entered, evt)
	})

	engine.ToggleRunning()
	engine.Advance(time.Minute)
	assert.Empty(t, entered)

	engine.Advance(time.Minute)
	require.Len(t, entered, 1)
	assert.Equal(t, 0, entered[0].PlayerIndex)
}

func TestEventDeliveredWithinMutatingCall(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var sawDuringAdvance timer.Snapshot
	engine.Events().SubscribeTyped(EventPlayerEliminated, func(Event) {
		// Snapshot taken inside the listener must already show the final
		// state of the advance that fired it.
		sawDuringAdvance = engine.Snapshot()
	})

	engine.ToggleRunning()
	engine.Advance(4 * time.Minute)
	engine.Advance(time.Minute)

	require.NotNil(t, sawDuringAdvance.Players)
	assert.True(t, sawDuringAdvance.Players[0].Out)
	assert.False(t, sawDuringAdvance.Running)
}

func TestPickPlayerEventAndError(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var switched []Event
	engine.Events().SubscribeTyped(EventTurnSwitched, func(evt Event) {
		switched = append(switched, evt)
	})

	require.ErrorIs(t, engine.PickPlayer(7), timer.ErrOutOfRange)
	assert.Empty(t, switched, "failed pick must not publish an event")

	require.NoError(t, engine.PickPlayer(1))
	require.Len(t, switched, 1)
	assert.Equal(t, 1, switched[0].PlayerIndex)
	assert.Equal(t, 1, engine.Snapshot().ActiveIndex)
}

func TestToggleAndResetEvents(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var events []Event
	engine.Events().Subscribe(func(evt Event) {
		events = append(events, evt)
	})

	engine.ToggleRunning()
	engine.Advance(30 * time.Second)
	engine.ResetCurrentTurn()

	require.Len(t, events, 2)
	assert.Equal(t, EventRunningToggled, events[0].Type)
	assert.True(t, events[0].Running)
	assert.Equal(t, EventTurnReset, events[1].Type)

	snap := engine.Snapshot()
	assert.Equal(t, int64(120000), snap.TurnRemainingMs)
	assert.True(t, snap.Running, "reset must not touch the running flag")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	engine := newTestEngine(t, testConfig())

	var count int
	handle := engine.Events().Subscribe(func(Event) { count++ })

	engine.ToggleRunning()
	engine.Events().Unsubscribe(handle)
	engine.ToggleRunning()

	assert.Equal(t, 1, count)
}
