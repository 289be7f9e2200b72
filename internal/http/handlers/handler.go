package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/http/middleware"
	"minesweeper_webapp/internal/service"
)

type Handler struct {
	Sessions *service.SessionService
	Audit    *service.AuditService
	Version  string
}

func NewHandler(sessions *service.SessionService, audit *service.AuditService, version string) *Handler {
	return &Handler{Sessions: sessions, Audit: audit, Version: version}
}

func getPlayerID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.PlayerIDKey)
	return id, id != ""
}

// ошибки игры в http статусы
func writeGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrOutOfBounds), errors.Is(err, game.ErrInvalidConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
