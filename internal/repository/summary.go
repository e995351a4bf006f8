package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PlayerResult is the final accounting for one seat when a game ends.
type PlayerResult struct {
	Name               string `json:"name"`
	TotalUsedMs        int64  `json:"total_used_ms"`
	ReserveUsedMs      int64  `json:"reserve_used_ms"`
	RemainingReserveMs int64  `json:"remaining_reserve_ms"`
	Eliminated         bool   `json:"eliminated"`
}

// GameSummary is the after-the-fact record of a finished game. In-progress
// state is never persisted; a summary is written only when a game is torn
// down.
type GameSummary struct {
	GameID            string
	CreatedAt         time.Time
	EndedAt           time.Time
	TurnDurationMs    int64
	ReserveDurationMs int64
	BankUnusedTime    bool
	Players           []PlayerResult
}

const createSummariesTable = `
CREATE TABLE IF NOT EXISTS game_summaries (
	game_id             UUID PRIMARY KEY,
	created_at          TIMESTAMPTZ NOT NULL,
	ended_at            TIMESTAMPTZ NOT NULL,
	turn_duration_ms    BIGINT NOT NULL,
	reserve_duration_ms BIGINT NOT NULL,
	bank_unused_time    BOOLEAN NOT NULL,
	players             JSONB NOT NULL
)`

// SummaryRepository stores completed-game summaries.
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository creates the repository and ensures its schema exists.
func NewSummaryRepository(ctx context.Context, db *DB) (*SummaryRepository, error) {
	if _, err := db.pool.Exec(ctx, createSummariesTable); err != nil {
		return nil, fmt.Errorf("failed to ensure game_summaries table: %w", err)
	}
	return &SummaryRepository{db: db}, nil
}

// Save writes the summary of a finished game.
func (r *SummaryRepository) Save(ctx context.Context, summary GameSummary) error {
	players, err := json.Marshal(summary.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal player results: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO game_summaries
			(game_id, created_at, ended_at, turn_duration_ms, reserve_duration_ms, bank_unused_time, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO NOTHING`,
		summary.GameID,
		summary.CreatedAt,
		summary.EndedAt,
		summary.TurnDurationMs,
		summary.ReserveDurationMs,
		summary.BankUnusedTime,
		players,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game summary: %w", err)
	}
	return nil
}
