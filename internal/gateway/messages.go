package gateway

import "github.com/turnclock/turnclock-server/internal/game/timer"

// Server-to-client message types.
const (
	MessageTypeState            = "state"
	MessageTypePlayerEliminated = "player_eliminated"
	MessageTypeError            = "error"
)

// Client-to-server command types.
const (
	CommandToggleRunning = "toggle_running"
	CommandPickPlayer    = "pick_player"
	CommandResetTurn     = "reset_turn"
)

// ServerMessage is the envelope for everything sent to clients. State
// messages carry a full snapshot; clients render from snapshots and count
// the turn down locally between them.
type ServerMessage struct {
	Type        string          `json:"type"`
	GameID      string          `json:"game_id,omitempty"`
	State       *timer.Snapshot `json:"state,omitempty"`
	PlayerIndex int             `json:"player_index"`
	Error       string          `json:"error,omitempty"`
}

// ClientCommand is a control action sent by a client over its game socket.
type ClientCommand struct {
	Type        string `json:"type"`
	PlayerIndex int    `json:"player_index"`
}

// CreateGameRequest is the body of POST /games. Omitted fields fall back to
// the server's configured defaults. ReserveMs and BankUnusedTime are
// pointers because zero reserve and disabled banking are both legal explicit
// choices.
type CreateGameRequest struct {
	TurnMs         int64    `json:"turn_ms"`
	ReserveMs      *int64   `json:"reserve_ms"`
	PlayerNames    []string `json:"player_names"`
	BankUnusedTime *bool    `json:"bank_unused_time"`
}

// CreateGameResponse is the body returned for a created game.
type CreateGameResponse struct {
	GameID string         `json:"game_id"`
	State  timer.Snapshot `json:"state"`
}

// GameInfo is one entry of the GET /games listing.
type GameInfo struct {
	GameID string         `json:"game_id"`
	State  timer.Snapshot `json:"state"`
}
