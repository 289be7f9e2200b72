package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"minesweeper_webapp/internal/logger"
)

// Connect открывает пул и проверяет соединение; пустой url - работа без БД
func Connect(url string) *pgxpool.Pool {
	if url == "" {
		logger.Warn("DATABASE_URL not set, audit journal disabled")
		return nil
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		logger.Fatal("invalid DATABASE_URL", "error", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect failed", "error", err)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("db ping failed", "error", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate failed", "error", err)
	}

	logger.Info("db connected")
	return pool
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id         BIGSERIAL PRIMARY KEY,
	player_id  TEXT        NOT NULL,
	action     TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	details    JSONB       NOT NULL DEFAULT '{}',
	ip         TEXT        NOT NULL DEFAULT '',
	user_agent TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_logs_player_idx ON audit_logs (player_id, category, created_at DESC);
`

// Migrate создает таблицы, если их нет
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
