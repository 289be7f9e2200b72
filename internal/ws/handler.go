package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/service"
)

// WSHandler поднимает websocket для сессии игрока
type WSHandler struct {
	Hub           *Hub
	Sessions      IntentHandler
	AllowedOrigin string
	// лимит намерений на игрока в минуту; 0 - без лимита
	RateLimitPerMinute int
}

func NewWSHandler(hub *Hub, sessions IntentHandler, allowedOrigin string, perMinute int) *WSHandler {
	return &WSHandler{
		Hub:                hub,
		Sessions:           sessions,
		AllowedOrigin:      allowedOrigin,
		RateLimitPerMinute: perMinute,
	}
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "player_id", playerID, "error", err)
			return
		}

		client := NewClient(playerID, conn, h.Hub, h.Sessions, h.RateLimitPerMinute)
		go client.Run()
	}
}
