package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minesweeper_webapp/internal/config"
	"minesweeper_webapp/internal/db"
	httpServer "minesweeper_webapp/internal/http"
	"minesweeper_webapp/internal/http/middleware"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/service"
	"minesweeper_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// база нужна только для журнала партий
	dbPool := db.Connect(cfg.DatabaseURL)
	if dbPool != nil {
		defer dbPool.Close()
	}
	audit := service.NewAuditService(dbPool)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// CORS для фронта на другом домене
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer middleware.CloseRateLimiter()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hub := ws.NewHub()
	sessions := service.NewSessionService(audit, hub, service.SessionOptions{
		Defaults:     cfg.Board,
		MaxBoardSide: cfg.MaxBoardSide,
		TTL:          cfg.SessionTTL,
	})

	httpServer.RegisterRoutes(r, sessions, audit, hub, Version, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "board", cfg.Board.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// таймеры сессий останавливаем после того, как новые запросы перестали приходить
	sessions.Stop()

	log.Info("server exited")
}
