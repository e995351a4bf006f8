package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/game/timer"
	"github.com/turnclock/turnclock-server/internal/repository"
)

// ErrGameNotFound is returned when an operation references a game ID the
// manager does not know.
var ErrGameNotFound = errors.New("game not found")

// SummarySink records the final accounting of a finished game.
type SummarySink interface {
	Save(ctx context.Context, summary repository.GameSummary) error
}

// Manager owns the active game instances. Each game is an independent
// TimerEngine; the manager only handles their lifecycle.
type Manager struct {
	mu     sync.RWMutex
	games  map[string]*TimerEngine
	saved  map[string]bool
	logger *zap.Logger

	// summaries may be nil; then finished games are simply discarded.
	summaries SummarySink
}

// NewManager creates an empty game manager.
func NewManager(logger *zap.Logger, summaries SummarySink) *Manager {
	return &Manager{
		games:     make(map[string]*TimerEngine),
		saved:     make(map[string]bool),
		logger:    logger,
		summaries: summaries,
	}
}

// CreateGame validates cfg, creates a new stopped game, and returns its
// engine.
func (m *Manager) CreateGame(cfg timer.GameConfig) (*TimerEngine, error) {
	id := uuid.NewString()
	engine, err := NewTimerEngine(id, cfg, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.games[id] = engine
	m.mu.Unlock()

	// A game is finished once the field is down to a single player; record its
	// summary right away instead of waiting for the teardown request.
	engine.Events().SubscribeTyped(EventPlayerEliminated, func(Event) {
		remaining := 0
		for _, p := range engine.Snapshot().Players {
			if !p.Out {
				remaining++
			}
		}
		if remaining <= 1 {
			m.saveSummary(context.Background(), engine)
		}
	})

	m.logger.Info("game created",
		zap.String("game_id", id),
		zap.Duration("turn_duration", cfg.TurnDuration),
		zap.Duration("reserve_duration", cfg.ReserveDuration),
		zap.Int("players", len(cfg.PlayerNames)),
		zap.Bool("bank_unused_time", cfg.BankUnusedTime),
	)
	return engine, nil
}

// GetGame returns the engine for the given game ID.
func (m *Manager) GetGame(id string) (*TimerEngine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.games[id]
	return engine, ok
}

// ListGames returns all active engines.
func (m *Manager) ListGames() []*TimerEngine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engines := make([]*TimerEngine, 0, len(m.games))
	for _, engine := range m.games {
		engines = append(engines, engine)
	}
	return engines
}

// RemoveGame tears down a game and, when a summary sink is configured,
// records its final accounting.
func (m *Manager) RemoveGame(ctx context.Context, id string) error {
	m.mu.Lock()
	engine, ok := m.games[id]
	if ok {
		delete(m.games, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("game %s: %w", id, ErrGameNotFound)
	}

	m.logger.Info("game removed", zap.String("game_id", id))

	err := m.saveSummary(ctx, engine)

	m.mu.Lock()
	delete(m.saved, id)
	m.mu.Unlock()

	return err
}

// saveSummary records the game's final accounting at most once. A failed save
// clears the marker so a later attempt can retry.
func (m *Manager) saveSummary(ctx context.Context, engine *TimerEngine) error {
	if m.summaries == nil {
		return nil
	}

	id := engine.ID()
	m.mu.Lock()
	if m.saved[id] {
		m.mu.Unlock()
		return nil
	}
	m.saved[id] = true
	m.mu.Unlock()

	if err := m.summaries.Save(ctx, buildSummary(engine)); err != nil {
		m.logger.Warn("failed to save game summary",
			zap.String("game_id", id),
			zap.Error(err),
		)
		m.mu.Lock()
		delete(m.saved, id)
		m.mu.Unlock()
		return err
	}
	return nil
}

// GameCount returns the number of active games.
func (m *Manager) GameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

func buildSummary(engine *TimerEngine) repository.GameSummary {
	snap := engine.Snapshot()
	cfg := engine.Config()

	players := make([]repository.PlayerResult, len(snap.Players))
	for i, p := range snap.Players {
		players[i] = repository.PlayerResult{
			Name:               p.Name,
			TotalUsedMs:        p.TotalUsedMs,
			ReserveUsedMs:      p.ReserveUsedMs,
			RemainingReserveMs: p.RemainingReserveMs,
			Eliminated:         p.Out,
		}
	}

	return repository.GameSummary{
		GameID:            engine.ID(),
		CreatedAt:         engine.CreatedAt(),
		EndedAt:           time.Now(),
		TurnDurationMs:    cfg.TurnDuration.Milliseconds(),
		ReserveDurationMs: cfg.ReserveDuration.Milliseconds(),
		BankUnusedTime:    cfg.BankUnusedTime,
		Players:           players,
	}
}
