package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minesweeper_webapp/internal/domain"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/service"
)

// GuestLogin выдает новый id игрока и токен
func (h *Handler) GuestLogin(c *gin.Context) {
	player := domain.Player{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	token, err := service.GenerateJWT(player.ID)
	if err != nil {
		logger.Error("jwt sign failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.Audit.LogLogin(c.Request.Context(), player.ID, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"player_id": player.ID,
		"player":    player,
	})
}
