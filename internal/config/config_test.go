package config

import (
	"testing"
	"time"

	"minesweeper_webapp/internal/game"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "BOARD_ROWS", "BOARD_COLS", "BOARD_MINES", "JWT_TTL", "SESSION_TTL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, ожидалось 8080", cfg.AppPort)
	}
	if cfg.Board != game.DefaultConfig() {
		t.Errorf("Board = %v, ожидалось %v", cfg.Board, game.DefaultConfig())
	}
	if cfg.JWTTTL != 24*time.Hour || cfg.SessionTTL != time.Hour {
		t.Errorf("неверные TTL по умолчанию: %v, %v", cfg.JWTTTL, cfg.SessionTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("BOARD_ROWS", "16")
	t.Setenv("BOARD_COLS", "30")
	t.Setenv("BOARD_MINES", "99")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.AppPort != "9090" || cfg.RedisDB != 3 {
		t.Errorf("переменные не применены: port=%s redis_db=%d", cfg.AppPort, cfg.RedisDB)
	}
	want := game.Config{Rows: 16, Cols: 30, Mines: 99}
	if cfg.Board != want {
		t.Errorf("Board = %v, ожидалось %v", cfg.Board, want)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BOARD_ROWS", "abc")
	t.Setenv("BOARD_COLS", "2")
	t.Setenv("BOARD_MINES", "40")
	t.Setenv("JWT_TTL", "-5s")

	cfg := Load()
	if cfg.Board != game.DefaultConfig() {
		t.Errorf("неверное поле должно заменяться значением по умолчанию, получено %v", cfg.Board)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("отрицательный TTL должен игнорироваться, получено %v", cfg.JWTTTL)
	}
}
