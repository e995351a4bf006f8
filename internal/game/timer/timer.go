package timer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is returned when a GameConfig cannot start a game.
	ErrInvalidConfig = errors.New("invalid game configuration")

	// ErrOutOfRange is returned when a player index is outside the seat list.
	ErrOutOfRange = errors.New("player index out of range")
)

// playerState tracks one seat's time accounting. All fields are mutated only
// by GameTimer.
type playerState struct {
	name string

	// totalReserve is the reserve pool at game start. Kept for display;
	// never decremented.
	totalReserve time.Duration

	// remainingReserve counts down as reserve is spent. Banking can push it
	// above totalReserve.
	remainingReserve time.Duration

	// totalUsed accumulates all time this player has consumed across their
	// completed turns. Display only; the algorithm never reads it.
	totalUsed time.Duration

	// reserveUsed is the lifetime reserve spend. Reserve spent during the
	// current activation is recovered by differencing against the checkpoint
	// taken when the player became active.
	reserveUsed time.Duration

	out bool
}

// GameTimer is the turn-timer state machine. It owns all mutable game state
// and is advanced purely by elapsed-time input; it never sleeps, schedules,
// or reads a clock. Callers must serialize access.
type GameTimer struct {
	players     []playerState
	activeIndex int

	turnTotal     time.Duration
	turnRemaining time.Duration

	running   bool
	onReserve bool

	// startReserveUsed is the active player's reserveUsed at the moment they
	// became active.
	startReserveUsed time.Duration

	bankUnusedTime bool
}

// AdvanceResult reports the transitions caused by a single Advance call.
type AdvanceResult struct {
	// EnteredReserve is true when this call exhausted the turn budget and
	// switched the active player onto reserve time.
	EnteredReserve bool

	// Eliminated is the index of the player whose reserve this call drove to
	// zero, or -1. Elimination halts the clock in the same call.
	Eliminated int
}

// NewGameTimer validates cfg and creates a game at player 0's turn with a
// full turn budget, not running.
func NewGameTimer(cfg GameConfig) (*GameTimer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	players := make([]playerState, len(cfg.PlayerNames))
	for i, name := range cfg.PlayerNames {
		players[i] = playerState{
			name:             name,
			totalReserve:     cfg.ReserveDuration,
			remainingReserve: cfg.ReserveDuration,
		}
	}

	return &GameTimer{
		players:        players,
		activeIndex:    0,
		turnTotal:      cfg.TurnDuration,
		turnRemaining:  cfg.TurnDuration,
		bankUnusedTime: cfg.BankUnusedTime,
	}, nil
}

// Running reports whether the clock should currently be driven.
func (gt *GameTimer) Running() bool {
	return gt.running
}

// Advance consumes elapsed time from the active player. While the turn budget
// lasts, it alone is decremented; a tick that overshoots the budget switches
// the player onto reserve and charges the overshoot to reserve within the
// same call, so no time is lost. A tick that lands exactly on the boundary
// enters reserve without drawing any. The tick that empties the reserve
// eliminates the player and stops the clock in the same update. A no-op
// while the clock is stopped.
func (gt *GameTimer) Advance(elapsed time.Duration) AdvanceResult {
	res := AdvanceResult{Eliminated: -1}
	if !gt.running || elapsed <= 0 {
		return res
	}

	if !gt.onReserve {
		if elapsed <= gt.turnRemaining {
			gt.turnRemaining -= elapsed
			if gt.turnRemaining == 0 {
				gt.onReserve = true
				res.EnteredReserve = true
			}
			return res
		}
		elapsed -= gt.turnRemaining
		gt.turnRemaining = 0
		gt.onReserve = true
		res.EnteredReserve = true
	}

	p := &gt.players[gt.activeIndex]
	delta := elapsed
	if delta > p.remainingReserve {
		delta = p.remainingReserve
	}
	p.remainingReserve -= delta
	p.reserveUsed += delta
	if p.remainingReserve == 0 && !p.out {
		p.out = true
		gt.running = false
		res.Eliminated = gt.activeIndex
	}
	return res
}

// ToggleRunning flips the clock between running and paused and returns the
// new state. It never touches time fields, so rapid toggling cannot corrupt
// the accounting.
func (gt *GameTimer) ToggleRunning() bool {
	gt.running = !gt.running
	return gt.running
}

// PickPlayer closes out the current player's turn accounting and hands the
// turn to the player at index. The outgoing player's spend this turn is the
// used portion of the turn budget, plus any reserve drawn since they became
// active. With banking enabled an unused turn remainder is credited to their
// reserve instead of counting as used time. The incoming player starts with a
// full turn budget and a fresh reserve checkpoint.
func (gt *GameTimer) PickPlayer(index int) error {
	if index < 0 || index >= len(gt.players) {
		return fmt.Errorf("%w: %d of %d players", ErrOutOfRange, index, len(gt.players))
	}

	current := &gt.players[gt.activeIndex]
	if gt.onReserve {
		reserveSpent := current.reserveUsed - gt.startReserveUsed
		current.totalUsed += gt.turnTotal + reserveSpent
	} else if gt.bankUnusedTime && gt.turnRemaining > 0 {
		current.remainingReserve += gt.turnRemaining
		current.totalUsed += gt.turnTotal - gt.turnRemaining
	} else {
		current.totalUsed += gt.turnTotal - gt.turnRemaining
	}

	gt.activeIndex = index
	gt.turnRemaining = gt.turnTotal
	gt.onReserve = false
	gt.startReserveUsed = gt.players[index].reserveUsed
	return nil
}

// ResetCurrentTurn restores the full turn budget for the same player and
// leaves reserve pools, used-time tallies, and the running flag alone. Used
// when a turn is restarted without crediting or charging any time.
func (gt *GameTimer) ResetCurrentTurn() {
	gt.turnRemaining = gt.turnTotal
	gt.onReserve = false
}
