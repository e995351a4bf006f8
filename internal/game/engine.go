package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/game/timer"
)

// TimerEngine wraps a single game's turn-timer state machine behind a mutex
// and publishes state transitions on an event bus. All four mutating entry
// points are serialized; each call is atomic with respect to the timer's
// invariants. Events are delivered synchronously within the call that caused
// them, after the state mutation is complete.
type TimerEngine struct {
	id        string
	createdAt time.Time
	config    timer.GameConfig

	mu    sync.Mutex
	clock *timer.GameTimer

	bus    *EventBus
	logger *zap.Logger
}

// NewTimerEngine validates cfg and creates a stopped engine at player 0's
// turn.
func NewTimerEngine(id string, cfg timer.GameConfig, logger *zap.Logger) (*TimerEngine, error) {
	clock, err := timer.NewGameTimer(cfg)
	if err != nil {
		return nil, err
	}
	return &TimerEngine{
		id:        id,
		createdAt: time.Now(),
		config:    cfg,
		clock:     clock,
		bus:       NewEventBus(),
		logger:    logger,
	}, nil
}

// ID returns the engine's game identifier.
func (e *TimerEngine) ID() string {
	return e.id
}

// CreatedAt returns when the game was created.
func (e *TimerEngine) CreatedAt() time.Time {
	return e.createdAt
}

// Config returns the immutable game configuration.
func (e *TimerEngine) Config() timer.GameConfig {
	return e.config
}

// Events returns the engine's event bus for subscription.
func (e *TimerEngine) Events() *EventBus {
	return e.bus
}

// Snapshot returns an immutable copy of the game state.
func (e *TimerEngine) Snapshot() timer.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Snapshot()
}

// Running reports whether the clock should currently be driven.
func (e *TimerEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Running()
}

// Advance consumes elapsed time from the active player. No-op while the
// clock is stopped. Publishes EventReserveEntered when the turn budget runs
// out and EventPlayerEliminated when a reserve is exhausted.
func (e *TimerEngine) Advance(elapsed time.Duration) {
	e.mu.Lock()
	res := e.clock.Advance(elapsed)
	active := e.clock.Snapshot().ActiveIndex
	running := e.clock.Running()
	e.mu.Unlock()

	if res.EnteredReserve {
		e.logger.Debug("player entered reserve time",
			zap.String("game_id", e.id),
			zap.Int("player", active),
		)
		e.publish(EventReserveEntered, active, running)
	}
	if res.Eliminated >= 0 {
		e.logger.Info("player eliminated",
			zap.String("game_id", e.id),
			zap.Int("player", res.Eliminated),
		)
		e.publish(EventPlayerEliminated, res.Eliminated, running)
	}
}

// ToggleRunning flips the clock between running and paused.
func (e *TimerEngine) ToggleRunning() {
	e.mu.Lock()
	snap := e.clock.Snapshot()
	running := e.clock.ToggleRunning()
	e.mu.Unlock()

	e.logger.Debug("clock toggled",
		zap.String("game_id", e.id),
		zap.Bool("running", running),
	)
	e.publish(EventRunningToggled, snap.ActiveIndex, running)
}

// PickPlayer closes out the current turn's accounting and hands the turn to
// the player at index. Returns timer.ErrOutOfRange for an invalid index, in
// which case no state changes and no event fires.
func (e *TimerEngine) PickPlayer(index int) error {
	e.mu.Lock()
	err := e.clock.PickPlayer(index)
	running := e.clock.Running()
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.logger.Debug("turn switched",
		zap.String("game_id", e.id),
		zap.Int("player", index),
	)
	e.publish(EventTurnSwitched, index, running)
	return nil
}

// ResetCurrentTurn restores the full turn budget without changing whose turn
// it is or crediting any time.
func (e *TimerEngine) ResetCurrentTurn() {
	e.mu.Lock()
	e.clock.ResetCurrentTurn()
	snap := e.clock.Snapshot()
	e.mu.Unlock()

	e.logger.Debug("turn reset",
		zap.String("game_id", e.id),
		zap.Int("player", snap.ActiveIndex),
	)
	e.publish(EventTurnReset, snap.ActiveIndex, snap.Running)
}

func (e *TimerEngine) publish(eventType EventType, playerIndex int, running bool) {
	e.bus.Publish(Event{
		Type:        eventType,
		GameID:      e.id,
		PlayerIndex: playerIndex,
		Running:     running,
		Timestamp:   time.Now(),
	})
}
