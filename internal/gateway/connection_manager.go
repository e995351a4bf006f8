package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnectionConfig holds WebSocket transport settings.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the transport settings used when none are
// supplied.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendQueueSize:   32,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
}

// Connection is one client socket subscribed to a single game.
type Connection struct {
	id     string
	gameID string
	conn   *websocket.Conn
	send   chan []byte
}

// ConnectionManager owns the client sockets, grouped by game, and fans
// outgoing messages out to them. Commands read from a socket are handed to
// the onCommand callback; the manager itself knows nothing about game rules.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]bool

	upgrader  websocket.Upgrader
	config    ConnectionConfig
	onCommand func(gameID string, cmd ClientCommand) error
	logger    *zap.Logger
}

// NewConnectionManager creates a connection manager. onCommand is invoked
// synchronously from a connection's read loop for each decoded command.
func NewConnectionManager(cfg ConnectionConfig, onCommand func(gameID string, cmd ClientCommand) error, logger *zap.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		config:    cfg,
		onCommand: onCommand,
		logger:    logger,
	}
}

// Upgrade turns an HTTP request into a game socket and starts its pumps.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, gameID string) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		id:     uuid.NewString(),
		gameID: gameID,
		conn:   ws,
		send:   make(chan []byte, cm.config.SendQueueSize),
	}

	cm.mu.Lock()
	if cm.connections[gameID] == nil {
		cm.connections[gameID] = make(map[*Connection]bool)
	}
	cm.connections[gameID][c] = true
	cm.mu.Unlock()

	cm.logger.Debug("client connected",
		zap.String("connection_id", c.id),
		zap.String("game_id", gameID),
	)

	go cm.writePump(c)
	go cm.readPump(c)
	return c, nil
}

// Send queues a message on a single connection, dropping it if the client
// cannot keep up or has already disconnected.
func (cm *ConnectionManager) Send(c *Connection, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		cm.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if !cm.connections[c.gameID][c] {
		return
	}
	select {
	case c.send <- payload:
	default:
		cm.logger.Warn("send queue full, dropping message",
			zap.String("connection_id", c.id),
		)
	}
}

// Broadcast sends a message to every connection watching the given game.
func (cm *ConnectionManager) Broadcast(gameID string, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		cm.logger.Error("failed to marshal broadcast", zap.Error(err))
		return
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for c := range cm.connections[gameID] {
		select {
		case c.send <- payload:
		default:
			cm.logger.Warn("send queue full, dropping broadcast",
				zap.String("connection_id", c.id),
				zap.String("game_id", gameID),
			)
		}
	}
}

// CloseGame disconnects every client watching the given game.
func (cm *ConnectionManager) CloseGame(gameID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for c := range cm.connections[gameID] {
		close(c.send)
	}
	delete(cm.connections, gameID)
}

// ConnectionCount returns the number of clients watching the given game.
func (cm *ConnectionManager) ConnectionCount(gameID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections[gameID])
}

func (cm *ConnectionManager) remove(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if conns, ok := cm.connections[c.gameID]; ok {
		if conns[c] {
			delete(conns, c)
			close(c.send)
		}
		if len(conns) == 0 {
			delete(cm.connections, c.gameID)
		}
	}
}

func (cm *ConnectionManager) readPump(c *Connection) {
	defer func() {
		cm.remove(c)
		c.conn.Close()
		cm.logger.Debug("client disconnected", zap.String("connection_id", c.id))
	}()

	c.conn.SetReadLimit(cm.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cm.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cm.config.PongTimeout))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cm.logger.Warn("unexpected socket close",
					zap.String("connection_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		var cmd ClientCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			cm.Send(c, ServerMessage{Type: MessageTypeError, GameID: c.gameID, Error: "malformed command"})
			continue
		}
		if err := cm.onCommand(c.gameID, cmd); err != nil {
			cm.Send(c, ServerMessage{Type: MessageTypeError, GameID: c.gameID, Error: err.Error()})
		}
	}
}

func (cm *ConnectionManager) writePump(c *Connection) {
	ticker := time.NewTicker(cm.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
