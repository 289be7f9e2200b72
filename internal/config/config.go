package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/logger"
)

type Config struct {
	AppPort     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	AllowedOrigin string

	// параметры поля для новых сессий
	Board        game.Config
	MaxBoardSide int
	SessionTTL   time.Duration

	RateLimitPerMinute int

	GinMode   string
	LogLevel  string
	LogFormat string
}

// Load читает .env (если есть) и переменные окружения
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env not found, using environment")
	}

	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		Board: game.Config{
			Rows:  getEnvInt("BOARD_ROWS", game.DefaultRows),
			Cols:  getEnvInt("BOARD_COLS", game.DefaultCols),
			Mines: getEnvInt("BOARD_MINES", game.DefaultMines),
		},
		MaxBoardSide: getEnvInt("MAX_BOARD_SIDE", 50),
		SessionTTL:   getEnvDuration("SESSION_TTL", time.Hour),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 600),

		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// неверное поле по умолчанию не должно ронять сервер
	if err := cfg.Board.Validate(); err != nil {
		logger.Warn("invalid default board, falling back", "board", cfg.Board.String(), "error", err)
		cfg.Board = game.DefaultConfig()
	}
	if cfg.MaxBoardSide < 1 {
		cfg.MaxBoardSide = 50
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid int in env", "key", key, "value", v)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration in env", "key", key, "value", v)
		return def
	}
	return d
}
