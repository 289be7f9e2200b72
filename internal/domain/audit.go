package domain

import "time"

// запись журнала: начало и исход партий, вход гостя
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	PlayerID  string                 `db:"player_id" json:"player_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

const (
	AuditCategoryAuth = "auth"
	AuditCategoryGame = "game"
)

const (
	AuditActionLogin = "login"

	AuditActionGameStart     = "game_start"
	AuditActionGameWin       = "game_win"
	AuditActionGameLose      = "game_lose"
	AuditActionGameConfigure = "game_configure"
)
