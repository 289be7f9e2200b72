package service

import (
	"context"
	"time"

	"minesweeper_webapp/internal/domain"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// хранилище журнала; в проде - repository.AuditRepository
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByPlayer(ctx context.Context, playerID, category string, actions []string, limit int) ([]*domain.AuditLog, error)
}

// пишет журнал партий. Без базы записи уходят только в лог.
type AuditService struct {
	store AuditStore
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	if db == nil {
		return &AuditService{}
	}
	return &AuditService{store: repository.NewAuditRepository(db)}
}

func NewAuditServiceWithStore(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *AuditService) Log(ctx context.Context, playerID, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, playerID, action, category, "", "", details)
}

// запись с ip и user-agent запроса
func (s *AuditService) LogWithRequest(ctx context.Context, playerID, action, category, ip, userAgent string, details map[string]interface{}) {
	if !s.Enabled() {
		logger.Debug("audit", "player_id", playerID, "action", action, "details", details)
		return
	}

	log := &domain.AuditLog{
		PlayerID:  playerID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.store.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "player_id", playerID)
	}
}

func (s *AuditService) LogLogin(ctx context.Context, playerID, ip, userAgent string) {
	s.LogWithRequest(ctx, playerID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

func (s *AuditService) LogGameStart(ctx context.Context, playerID string, rows, cols, mines int) {
	s.Log(ctx, playerID, domain.AuditActionGameStart, domain.AuditCategoryGame, map[string]interface{}{
		"rows":  rows,
		"cols":  cols,
		"mines": mines,
	})
}

// итог партии: победа или подрыв
func (s *AuditService) LogGame(ctx context.Context, playerID string, res domain.GameResult) {
	action := domain.AuditActionGameLose
	if res.Won {
		action = domain.AuditActionGameWin
	}

	s.Log(ctx, playerID, action, domain.AuditCategoryGame, map[string]interface{}{
		"rows":            res.Rows,
		"cols":            res.Cols,
		"mines":           res.Mines,
		"elapsed_seconds": res.ElapsedSeconds,
		"flags":           res.Flags,
		"win":             res.Won,
	})
}

// история законченных партий игрока, новые первыми
func (s *AuditService) GetGameResults(ctx context.Context, playerID string, limit int) ([]domain.GameResult, error) {
	results := []domain.GameResult{}
	if !s.Enabled() {
		return results, nil
	}

	finished := []string{domain.AuditActionGameWin, domain.AuditActionGameLose}
	logs, err := s.store.GetByPlayer(ctx, playerID, domain.AuditCategoryGame, finished, limit)
	if err != nil {
		return nil, err
	}

	for _, l := range logs {
		results = append(results, domain.GameResult{
			Won:            l.Action == domain.AuditActionGameWin,
			Rows:           detailInt(l.Details, "rows"),
			Cols:           detailInt(l.Details, "cols"),
			Mines:          detailInt(l.Details, "mines"),
			ElapsedSeconds: detailInt(l.Details, "elapsed_seconds"),
			Flags:          detailInt(l.Details, "flags"),
			FinishedAt:     l.CreatedAt,
		})
	}
	return results, nil
}

// json отдает числа как float64
func detailInt(details map[string]interface{}, key string) int {
	switch v := details[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func auditContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
