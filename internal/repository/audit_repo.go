package repository

import (
	"context"
	"encoding/json"

	"minesweeper_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// журнал партий в Postgres
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (player_id, action, category, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.PlayerID, log.Action, log.Category, detailsJSON, log.IP, log.UserAgent)
	return err
}

// последние записи игрока в категории, новые первыми.
// Пустой actions - без фильтра по действию.
func (r *AuditRepository) GetByPlayer(ctx context.Context, playerID, category string, actions []string, limit int) ([]*domain.AuditLog, error) {
	if actions == nil {
		actions = []string{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, action, category, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE player_id = $1 AND category = $2
		  AND (cardinality($3::text[]) = 0 OR action = ANY($3::text[]))
		ORDER BY created_at DESC
		LIMIT $4
	`, playerID, category, actions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.PlayerID, &log.Action, &log.Category, &detailsJSON, &log.IP, &log.UserAgent, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
