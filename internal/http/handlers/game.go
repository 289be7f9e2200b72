package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/metrics"
)

// CellRequest - координаты клетки. Указатели отличают 0 от пропущенного поля.
type CellRequest struct {
	Row *int `json:"row" binding:"required"`
	Col *int `json:"col" binding:"required"`
}

type ConfigureRequest struct {
	Rows  int  `json:"rows" binding:"required,min=1"`
	Cols  int  `json:"cols" binding:"required,min=1"`
	Mines *int `json:"mines" binding:"required,min=0"`
}

// RevealResponse - снимок и число открытых ходом клеток
type RevealResponse struct {
	game.Snapshot
	Revealed int `json:"revealed"`
}

func (h *Handler) GetGame(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	snap, err := h.Sessions.State(playerID)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Reveal(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req CellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	metrics.Intents.WithLabelValues("reveal", "http").Inc()

	snap, opened, err := h.Sessions.Reveal(playerID, *req.Row, *req.Col)
	if err != nil {
		writeGameError(c, err)
		return
	}
	if snap.GameOver && opened > 0 {
		logger.WithContext(c.Request.Context()).Debug("game over by reveal", "status", snap.Status)
	}
	c.JSON(http.StatusOK, RevealResponse{Snapshot: snap, Revealed: opened})
}

func (h *Handler) Flag(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req CellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	metrics.Intents.WithLabelValues("flag", "http").Inc()

	snap, err := h.Sessions.ToggleFlag(playerID, *req.Row, *req.Col)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Restart(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}
	metrics.Intents.WithLabelValues("restart", "http").Inc()

	snap, err := h.Sessions.Restart(playerID)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Configure(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	var req ConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	metrics.Intents.WithLabelValues("configure", "http").Inc()

	snap, err := h.Sessions.Configure(playerID, game.Config{Rows: req.Rows, Cols: req.Cols, Mines: *req.Mines})
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Help(c *gin.Context) {
	c.JSON(http.StatusOK, game.Rules())
}

func (h *Handler) Limits(c *gin.Context) {
	c.JSON(http.StatusOK, h.Sessions.Limits())
}

// История законченных партий (пусто без базы)
func (h *Handler) History(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player not found"})
		return
	}

	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	results, err := h.Audit.GetGameResults(c.Request.Context(), playerID, limit)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("history query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": results})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  h.Version,
		"sessions": h.Sessions.ActiveSessions(),
		"audit":    h.Audit.Enabled(),
	})
}
