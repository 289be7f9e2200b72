package ws

import (
	"encoding/json"
	"sync"

	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/metrics"
)

// Hub раздает снимки сессии всем открытым вкладкам игрока
type Hub struct {
	clients map[string]map[*Client]struct{} // playerID -> клиенты
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

type envelope struct {
	Type  string         `json:"type"`
	Data  *game.Snapshot `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

func stateMessage(snap game.Snapshot) []byte {
	msg, _ := json.Marshal(envelope{Type: "state", Data: &snap})
	return msg
}

func errorMessage(err error) []byte {
	msg, _ := json.Marshal(envelope{Type: "error", Error: err.Error()})
	return msg
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.PlayerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.PlayerID] = set
	}
	set[c] = struct{}{}
	metrics.WSClients.Inc()
}

// Unregister убирает клиента и закрывает его очередь отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.PlayerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.PlayerID)
	}
	close(c.Send)
	metrics.WSClients.Dec()
}

// Publish не блокируется: медленный клиент пропускает снимок
func (h *Hub) Publish(playerID string, snap game.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[playerID]
	if len(set) == 0 {
		return
	}
	msg := stateMessage(snap)
	for c := range set {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws send buffer full, snapshot dropped", "player_id", playerID, "version", snap.Version)
		}
	}
}

func (h *Hub) ClientCount(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[playerID])
}
