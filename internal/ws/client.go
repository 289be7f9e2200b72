package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/http/middleware"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// выполняет намерения игрока; в проде - service.SessionService
type IntentHandler interface {
	HandleIntent(playerID string, in service.Intent) (game.Snapshot, error)
	State(playerID string) (game.Snapshot, error)
}

type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte

	hub      *Hub
	sessions IntentHandler
	limit    int // намерений в минуту, общий счетчик с REST
}

func NewClient(playerID string, conn *websocket.Conn, hub *Hub, sessions IntentHandler, perMinute int) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		hub:      hub,
		sessions: sessions,
		limit:    perMinute,
	}
}

// Run регистрирует клиента, отправляет текущее состояние и читает намерения до разрыва
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()

	snap, err := c.sessions.State(c.PlayerID)
	if err != nil {
		c.reply(errorMessage(err))
	} else {
		c.reply(stateMessage(snap))
	}

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read failed", "player_id", c.PlayerID, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg []byte) {
	var in service.Intent
	if err := json.Unmarshal(msg, &in); err != nil {
		c.reply(errorMessage(fmt.Errorf("malformed message: %w", err)))
		return
	}
	if !middleware.Allow(context.Background(), c.PlayerID, c.limit) {
		c.reply(errorMessage(middleware.ErrTooManyRequests))
		return
	}

	snap, err := c.sessions.HandleIntent(c.PlayerID, in)
	if err != nil {
		c.reply(errorMessage(err))
		return
	}
	// изменения приходят через Hub.Publish, запрос состояния отвечаем напрямую
	if in.Type == service.IntentState {
		c.reply(stateMessage(snap))
	}
}

// отправка ответа из readPump; Send закрывается только в Unregister после выхода из цикла
func (c *Client) reply(msg []byte) {
	select {
	case c.Send <- msg:
	default:
		logger.Warn("ws reply dropped", "player_id", c.PlayerID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write failed", "player_id", c.PlayerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
