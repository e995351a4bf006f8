package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/config"
	"github.com/turnclock/turnclock-server/internal/game"
	"github.com/turnclock/turnclock-server/internal/game/timer"
)

// Service ties the game manager, clock drivers, and client connections
// together. Creating a game starts its driver; every engine event is fanned
// out to the game's sockets as a fresh snapshot, with eliminations
// additionally delivered as an alert message so clients can fire whatever
// sound or flash they render eliminations with.
type Service struct {
	manager     *game.Manager
	connections *ConnectionManager
	clock       clockwork.Clock
	defaults    config.GameConfig
	logger      *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	// base is the lifetime of all drivers; set by Start.
	base context.Context
}

// NewService creates the gateway service.
func NewService(manager *game.Manager, clock clockwork.Clock, defaults config.GameConfig, logger *zap.Logger) *Service {
	s := &Service{
		manager:  manager,
		clock:    clock,
		defaults: defaults,
		logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
		base:     context.Background(),
	}
	s.connections = NewConnectionManager(DefaultConnectionConfig(), s.dispatchCommand, logger)
	return s
}

// Start binds the service to ctx; drivers of subsequently created games stop
// when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = ctx
}

// Connections exposes the connection manager for the HTTP handler.
func (s *Service) Connections() *ConnectionManager {
	return s.connections
}

// CreateGame builds a game config from the request and the server defaults,
// creates the game, and starts its clock driver.
func (s *Service) CreateGame(req CreateGameRequest) (*game.TimerEngine, error) {
	cfg := timer.GameConfig{
		TurnDuration:    s.defaults.DefaultTurnDuration,
		ReserveDuration: s.defaults.DefaultReserveDuration,
		BankUnusedTime:  s.defaults.DefaultBankUnusedTime,
		PlayerNames:     req.PlayerNames,
	}
	if req.TurnMs > 0 {
		cfg.TurnDuration = time.Duration(req.TurnMs) * time.Millisecond
	}
	if req.ReserveMs != nil {
		cfg.ReserveDuration = time.Duration(*req.ReserveMs) * time.Millisecond
	}
	if req.BankUnusedTime != nil {
		cfg.BankUnusedTime = *req.BankUnusedTime
	}

	engine, err := s.manager.CreateGame(cfg)
	if err != nil {
		return nil, err
	}

	engine.Events().Subscribe(func(evt game.Event) {
		s.broadcastState(engine)
		if evt.Type == game.EventPlayerEliminated {
			s.connections.Broadcast(engine.ID(), ServerMessage{
				Type:        MessageTypePlayerEliminated,
				GameID:      engine.ID(),
				PlayerIndex: evt.PlayerIndex,
			})
		}
	})

	s.mu.Lock()
	driverCtx, cancel := context.WithCancel(s.base)
	s.cancels[engine.ID()] = cancel
	s.mu.Unlock()

	driver := game.NewDriver(s.clock, s.defaults.TickInterval, s.logger)
	go driver.Run(driverCtx, engine)

	return engine, nil
}

// RemoveGame stops a game's driver, disconnects its clients, and tears the
// game down (persisting its summary when a sink is configured).
func (s *Service) RemoveGame(ctx context.Context, gameID string) error {
	s.mu.Lock()
	if cancel, ok := s.cancels[gameID]; ok {
		cancel()
		delete(s.cancels, gameID)
	}
	s.mu.Unlock()

	s.connections.CloseGame(gameID)
	return s.manager.RemoveGame(ctx, gameID)
}

// Shutdown stops all drivers.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
}

// Attach registers an HTTP-upgraded connection with a game and sends it the
// current snapshot so the client can render immediately.
func (s *Service) Attach(c *Connection, engine *game.TimerEngine) {
	snap := engine.Snapshot()
	s.connections.Send(c, ServerMessage{
		Type:   MessageTypeState,
		GameID: engine.ID(),
		State:  &snap,
	})
}

func (s *Service) broadcastState(engine *game.TimerEngine) {
	snap := engine.Snapshot()
	s.connections.Broadcast(engine.ID(), ServerMessage{
		Type:   MessageTypeState,
		GameID: engine.ID(),
		State:  &snap,
	})
}

func (s *Service) dispatchCommand(gameID string, cmd ClientCommand) error {
	engine, ok := s.manager.GetGame(gameID)
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}

	switch strings.TrimSpace(cmd.Type) {
	case CommandToggleRunning:
		engine.ToggleRunning()
		return nil
	case CommandPickPlayer:
		return engine.PickPlayer(cmd.PlayerIndex)
	case CommandResetTurn:
		engine.ResetCurrentTurn()
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}
