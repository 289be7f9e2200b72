package http

import (
	"github.com/gin-gonic/gin"

	"minesweeper_webapp/internal/config"
	"minesweeper_webapp/internal/http/handlers"
	"minesweeper_webapp/internal/http/middleware"
	"minesweeper_webapp/internal/service"
	"minesweeper_webapp/internal/ws"
)

// RegisterRoutes вешает REST и websocket маршруты игры
func RegisterRoutes(r *gin.Engine, sessions *service.SessionService, audit *service.AuditService, hub *ws.Hub, version string, cfg *config.Config) {
	h := handlers.NewHandler(sessions, audit, version)
	wsHandler := ws.NewWSHandler(hub, sessions, cfg.AllowedOrigin, cfg.RateLimitPerMinute)

	r.GET("/health", h.Health)

	r.POST("/api/auth/guest", middleware.RateLimit(cfg.RateLimitPerMinute), h.GuestLogin)

	api := r.Group("/api/game")
	api.Use(middleware.AuthRequired(), middleware.RateLimit(cfg.RateLimitPerMinute))
	{
		api.GET("", h.GetGame)
		api.POST("/reveal", h.Reveal)
		api.POST("/flag", h.Flag)
		api.POST("/restart", h.Restart)
		api.POST("/configure", h.Configure)
		api.GET("/help", h.Help)
		api.GET("/limits", h.Limits)
		api.GET("/history", h.History)
	}

	r.GET("/ws", wsHandler.HandleWS())
}
