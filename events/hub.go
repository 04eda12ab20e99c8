package events

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
)

// WebSocketMessage is the envelope pushed to subscribed clients.
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// GameStartedPayload announces one newly created game of a round.
type GameStartedPayload struct {
	TournamentID int    `json:"tournament_id"`
	GameID       string `json:"game_id"`
}

// Hub fans tournament events out to websocket clients grouped in
// per-tournament rooms.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.String("room", client.Room))

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", slog.String("room", client.Room))
		}
	}
}

// GameStarted announces one newly created game to the tournament's room.
// Invoked once per game, after its persistence write completes.
func (h *Hub) GameStarted(tournamentID int, gameID string) {
	roomID := RoomID(tournamentID)
	h.broadcastToRoom(roomID, WebSocketMessage{
		Type:    "GAME_STARTED",
		Payload: GameStartedPayload{TournamentID: tournamentID, GameID: gameID},
		RoomID:  roomID,
	})
}

func RoomID(tournamentID int) string {
	return "tournament_" + strconv.Itoa(tournamentID)
}

func (h *Hub) broadcastToRoom(roomID string, message WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop the message rather than block the round.
		}
	}
}
