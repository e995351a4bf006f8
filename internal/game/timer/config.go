package timer

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinPlayers and MaxPlayers bound the number of seats a game may have.
	MinPlayers = 3
	MaxPlayers = 6
)

// GameConfig holds the immutable parameters of a game. It is validated once,
// before a GameTimer is constructed; a GameTimer never exists with an invalid
// configuration.
type GameConfig struct {
	// TurnDuration is the per-turn time budget available to the active
	// player before reserve time is drawn.
	TurnDuration time.Duration

	// ReserveDuration is each player's reserve pool at game start. A player
	// whose reserve reaches zero while active and on reserve is eliminated.
	ReserveDuration time.Duration

	// PlayerNames lists the seats in turn order. Indices are stable for the
	// lifetime of the game.
	PlayerNames []string

	// BankUnusedTime controls whether the unused remainder of a turn budget
	// is credited to the player's reserve when their turn ends early.
	BankUnusedTime bool
}

// Validate reports whether the configuration can start a game.
func (c GameConfig) Validate() error {
	if c.TurnDuration <= 0 {
		return fmt.Errorf("%w: turn duration must be positive, got %s", ErrInvalidConfig, c.TurnDuration)
	}
	if c.ReserveDuration < 0 {
		return fmt.Errorf("%w: reserve duration must not be negative, got %s", ErrInvalidConfig, c.ReserveDuration)
	}
	if len(c.PlayerNames) < MinPlayers || len(c.PlayerNames) > MaxPlayers {
		return fmt.Errorf("%w: player count must be between %d and %d, got %d",
			ErrInvalidConfig, MinPlayers, MaxPlayers, len(c.PlayerNames))
	}
	for i, name := range c.PlayerNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: player %d has a blank name", ErrInvalidConfig, i)
		}
	}
	return nil
}
