package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"minesweeper_webapp/internal/domain"
	"minesweeper_webapp/internal/game"
	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/metrics"
)

var (
	ErrBoardTooLarge = fmt.Errorf("%w: board side exceeds limit", game.ErrInvalidConfiguration)
	ErrUnknownIntent = errors.New("unknown intent")
	ErrStopped       = errors.New("session service stopped")
)

// получает свежий снимок после каждого изменения сессии игрока
type Notifier interface {
	Publish(playerID string, snap game.Snapshot)
}

// Notifier, знающий о подключенных клиентах: сессию с открытой вкладкой не выселяем
type Presence interface {
	ClientCount(playerID string) int
}

// намерение игрока, пришедшее по websocket
type Intent struct {
	Type  string `json:"type"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Mines int    `json:"mines"`
}

const (
	IntentReveal    = "reveal"
	IntentFlag      = "flag"
	IntentRestart   = "restart"
	IntentConfigure = "configure"
	IntentState     = "state"
)

type SessionOptions struct {
	Defaults     game.Config
	MaxBoardSide int
	TTL          time.Duration
	TickInterval time.Duration
	// фабрика генератора для новых сессий; nil - криптостойкий сид
	NewRand func() game.RandSource
	Now     func() time.Time
}

// Limits - ограничения для клиента
type Limits struct {
	MaxBoardSide int         `json:"max_board_side"`
	Defaults     game.Config `json:"defaults"`
}

// держит по одной сессии сапёра на игрока
type SessionService struct {
	audit    *AuditService
	notifier Notifier
	opts     SessionOptions

	sessions map[string]*session // playerID -> session
	mu       sync.RWMutex
	stopped  bool

	stop     chan struct{}
	stopOnce sync.Once
}

type session struct {
	playerID string
	engine   *game.Engine
	log      *slog.Logger

	mu          sync.Mutex
	lastVersion uint64
	lastStatus  game.Status
	lastSeen    time.Time
}

func NewSessionService(audit *AuditService, notifier Notifier, opts SessionOptions) *SessionService {
	if opts.Defaults == (game.Config{}) {
		opts.Defaults = game.DefaultConfig()
	}
	if opts.MaxBoardSide <= 0 {
		opts.MaxBoardSide = 50
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.TickInterval < 0 {
		opts.TickInterval = 0
	} else if opts.TickInterval == 0 {
		opts.TickInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &SessionService{
		audit:    audit,
		notifier: notifier,
		opts:     opts,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}

	go s.cleanupIdleSessions()

	return s
}

func (s *SessionService) Limits() Limits {
	return Limits{MaxBoardSide: s.opts.MaxBoardSide, Defaults: s.opts.Defaults}
}

// State возвращает снимок сессии, создавая ее при первом обращении
func (s *SessionService) State(playerID string) (game.Snapshot, error) {
	sess, err := s.get(playerID)
	if err != nil {
		return game.Snapshot{}, err
	}
	return sess.engine.Snapshot(), nil
}

// Reveal открывает клетку; вторым значением - число открытых клеток
func (s *SessionService) Reveal(playerID string, row, col int) (game.Snapshot, int, error) {
	sess, err := s.get(playerID)
	if err != nil {
		return game.Snapshot{}, 0, err
	}
	opened, err := sess.engine.Reveal(row, col)
	if err != nil {
		return sess.engine.Snapshot(), 0, err
	}
	if opened > 0 {
		metrics.CellsRevealed.Observe(float64(opened))
	}
	return sess.engine.Snapshot(), opened, nil
}

func (s *SessionService) ToggleFlag(playerID string, row, col int) (game.Snapshot, error) {
	sess, err := s.get(playerID)
	if err != nil {
		return game.Snapshot{}, err
	}
	err = sess.engine.ToggleFlag(row, col)
	return sess.engine.Snapshot(), err
}

func (s *SessionService) Restart(playerID string) (game.Snapshot, error) {
	sess, err := s.get(playerID)
	if err != nil {
		return game.Snapshot{}, err
	}
	sess.engine.Restart()
	return sess.engine.Snapshot(), nil
}

// Configure проверяет лимит стороны поля и перезапускает партию с новыми параметрами
func (s *SessionService) Configure(playerID string, cfg game.Config) (game.Snapshot, error) {
	sess, err := s.get(playerID)
	if err != nil {
		return game.Snapshot{}, err
	}
	if cfg.Rows > s.opts.MaxBoardSide || cfg.Cols > s.opts.MaxBoardSide {
		return sess.engine.Snapshot(), ErrBoardTooLarge
	}
	if err := sess.engine.Configure(cfg); err != nil {
		return sess.engine.Snapshot(), err
	}
	if s.audit != nil {
		go func() {
			ctx, cancel := auditContext()
			defer cancel()
			s.audit.Log(ctx, playerID, domain.AuditActionGameConfigure, domain.AuditCategoryGame, map[string]interface{}{
				"rows": cfg.Rows, "cols": cfg.Cols, "mines": cfg.Mines,
			})
		}()
	}
	return sess.engine.Snapshot(), nil
}

// HandleIntent выполняет намерение из websocket
func (s *SessionService) HandleIntent(playerID string, in Intent) (game.Snapshot, error) {
	metrics.Intents.WithLabelValues(in.Type, "ws").Inc()

	switch in.Type {
	case IntentReveal:
		snap, _, err := s.Reveal(playerID, in.Row, in.Col)
		return snap, err
	case IntentFlag:
		return s.ToggleFlag(playerID, in.Row, in.Col)
	case IntentRestart:
		return s.Restart(playerID)
	case IntentConfigure:
		return s.Configure(playerID, game.Config{Rows: in.Rows, Cols: in.Cols, Mines: in.Mines})
	case IntentState:
		return s.State(playerID)
	default:
		return game.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
}

func (s *SessionService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop останавливает очистку и таймеры всех сессий
func (s *SessionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		s.stopped = true
		sessions := s.sessions
		s.sessions = make(map[string]*session)
		s.mu.Unlock()

		for _, sess := range sessions {
			sess.engine.Close()
		}
		metrics.ActiveSessions.Set(0)
	})
}

func (s *SessionService) get(playerID string) (*session, error) {
	now := s.opts.Now()

	s.mu.RLock()
	sess, ok := s.sessions[playerID]
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return nil, ErrStopped
	}
	if ok {
		sess.touch(now)
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}
	if sess, ok := s.sessions[playerID]; ok {
		sess.touch(now)
		return sess, nil
	}

	sess = &session{
		playerID:   playerID,
		log:        logger.With("player_id", playerID),
		lastSeen:   now,
		lastStatus: game.StatusNotStarted,
	}
	opts := []game.Option{
		game.WithTickInterval(s.opts.TickInterval),
		game.WithNotify(func(snap game.Snapshot) { s.onUpdate(sess, snap) }),
	}
	if s.opts.NewRand != nil {
		opts = append(opts, game.WithRand(s.opts.NewRand()))
	}
	engine, err := game.NewEngine(s.opts.Defaults, opts...)
	if err != nil {
		return nil, err
	}
	sess.engine = engine
	s.sessions[playerID] = sess

	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	sess.log.Debug("session created", "board", s.opts.Defaults.String())
	return sess, nil
}

// вызывается движком без его блокировки, возможно из горутины таймера
func (s *SessionService) onUpdate(sess *session, snap game.Snapshot) {
	sess.mu.Lock()
	// уведомления могут прийти не по порядку, старые отбрасываем
	if snap.Version <= sess.lastVersion {
		sess.mu.Unlock()
		return
	}
	sess.lastVersion = snap.Version
	prev := sess.lastStatus
	sess.lastStatus = snap.Status

	if s.notifier != nil {
		s.notifier.Publish(sess.playerID, snap)
	}
	sess.mu.Unlock()

	if prev == snap.Status {
		return
	}

	// первый ход может сразу закончить партию: старт учитываем и тогда
	started := prev == game.StatusNotStarted && (snap.Status == game.StatusInProgress || snap.GameOver)
	if started {
		metrics.GamesStarted.Inc()
	}

	var res *domain.GameResult
	if snap.GameOver {
		metrics.ObserveFinish(snap.Status)
		sess.log.Info("game finished", "status", snap.Status, "elapsed", snap.ElapsedSeconds)
		res = &domain.GameResult{
			Won:            snap.Won,
			Rows:           snap.Rows,
			Cols:           snap.Cols,
			Mines:          snap.Mines,
			ElapsedSeconds: snap.ElapsedSeconds,
			Flags:          snap.FlagCount,
			FinishedAt:     s.opts.Now(),
		}
	}
	if !started && res == nil {
		return
	}

	// одна горутина: game_start всегда пишется раньше итога
	s.auditAsync(func(a *AuditService) {
		ctx, cancel := auditContext()
		defer cancel()
		if started {
			a.LogGameStart(ctx, sess.playerID, snap.Rows, snap.Cols, snap.Mines)
		}
		if res != nil {
			a.LogGame(ctx, sess.playerID, *res)
		}
	})
}

func (s *SessionService) auditAsync(fn func(a *AuditService)) {
	if s.audit == nil {
		return
	}
	go fn(s.audit)
}

// удаляет сессии, к которым давно не обращались
func (s *SessionService) cleanupIdleSessions() {
	interval := s.opts.TTL / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictIdle(s.opts.Now())
		}
	}
}

func (s *SessionService) evictIdle(now time.Time) int {
	presence, _ := s.notifier.(Presence)

	s.mu.Lock()
	var idle []*session
	for playerID, sess := range s.sessions {
		if presence != nil && presence.ClientCount(playerID) > 0 {
			sess.touch(now)
			continue
		}
		if now.Sub(sess.seen()) > s.opts.TTL {
			idle = append(idle, sess)
			delete(s.sessions, playerID)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, sess := range idle {
		sess.engine.Close()
	}
	if len(idle) > 0 {
		logger.Info("idle sessions evicted", "count", len(idle))
	}
	return len(idle)
}

func (sess *session) touch(now time.Time) {
	sess.mu.Lock()
	sess.lastSeen = now
	sess.mu.Unlock()
}

func (sess *session) seen() time.Time {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastSeen
}
