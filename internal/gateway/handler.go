package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/turnclock/turnclock-server/internal/game"
)

// Handler exposes the gateway over HTTP: game lifecycle endpoints plus the
// WebSocket upgrade for live state.
type Handler struct {
	service *Service
	manager *game.Manager
	logger  *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *Service, manager *game.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers all gateway routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/games", h.handleGames)
	mux.HandleFunc("/ws/game", h.handleGameSocket)
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *Handler) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateGame(w, r)
	case http.MethodGet:
		h.handleListGames(w, r)
	case http.MethodDelete:
		h.handleRemoveGame(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	engine, err := h.service.CreateGame(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, CreateGameResponse{
		GameID: engine.ID(),
		State:  engine.Snapshot(),
	})
}

func (h *Handler) handleListGames(w http.ResponseWriter, _ *http.Request) {
	engines := h.manager.ListGames()
	infos := make([]GameInfo, 0, len(engines))
	for _, engine := range engines {
		infos = append(infos, GameInfo{
			GameID: engine.ID(),
			State:  engine.Snapshot(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleRemoveGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveGame(context.Background(), gameID); err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}

	engine, ok := h.manager.GetGame(gameID)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	c, err := h.service.Connections().Upgrade(w, r, gameID)
	if err != nil {
		h.logger.Error("failed to upgrade connection",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return
	}
	h.service.Attach(c, engine)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"games":  h.manager.GameCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already written; nothing left to do.
		return
	}
}
