package game

import (
	"sync"
	"time"
)

// Engine - игровая сессия сапёра: одно поле, флаги, таймер и состояние партии.
// Намерения игрока и тики таймера выполняются под одним мьютексом,
// поэтому два колбэка никогда не работают одновременно.
type Engine struct {
	mu sync.Mutex

	cfg         Config
	board       *Board
	status      Status
	minesPlaced bool
	flagCount   int
	elapsed     int
	startTime   time.Time
	timer       *TimerHandle
	version     uint64
	closed      bool

	rnd          RandSource
	now          func() time.Time
	tickInterval time.Duration
	notify       func(Snapshot)
}

type Option func(*Engine)

// подменяет генератор случайных чисел (для воспроизводимых тестов)
func WithRand(rnd RandSource) Option {
	return func(e *Engine) { e.rnd = rnd }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// 0 отключает фоновую горутину таймера
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// fn получает снимок после каждого изменения состояния, вызывается без блокировки
func WithNotify(fn func(Snapshot)) Option {
	return func(e *Engine) { e.notify = fn }
}

// создает новую сессию в состоянии NotStarted
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:          cfg,
		now:          time.Now,
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = newDefaultRand()
	}

	e.resetLocked()
	return e, nil
}

// Reveal открывает клетку и возвращает, сколько клеток открылось.
// Открытая, помеченная клетка или законченная игра - молчаливый no-op.
func (e *Engine) Reveal(row, col int) (int, error) {
	var (
		opened int
		err    error
	)
	e.mutate(func() bool {
		opened, err = e.revealLocked(row, col)
		return opened > 0
	})
	return opened, err
}

func (e *Engine) revealLocked(row, col int) (int, error) {
	if err := e.board.checkBounds(row, col); err != nil {
		return 0, err
	}
	if e.status.IsTerminal() {
		return 0, nil
	}

	cell := e.board.at(row, col)
	if cell.Revealed || cell.Flagged {
		return 0, nil
	}

	// первый ход: мины ставятся только сейчас, вокруг клика их не будет
	if !e.minesPlaced {
		if err := e.board.PlaceMines(row, col, e.cfg.Mines, e.rnd); err != nil {
			return 0, err
		}
		e.minesPlaced = true
		e.status = StatusInProgress
		e.startTime = e.now()
		e.startTimerLocked()
	}

	cell.Revealed = true
	opened := 1

	if cell.IsMine {
		e.finishLocked(StatusLost)
		e.board.revealMines()
		return opened, nil
	}

	if cell.AdjacentMines == 0 {
		opened += e.floodLocked(row, col)
	}

	if e.board.allSafeRevealed() {
		e.finishLocked(StatusWon)
	}
	return opened, nil
}

// открывает область нулей вокруг (row, col) явным стеком.
// Флаг revealed служит отметкой посещения, флаги не трогаются.
func (e *Engine) floodLocked(row, col int) int {
	opened := 0
	stack := [][2]int{{row, col}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e.board.forEachNeighbor(p[0], p[1], func(n *Cell) {
			if n.Revealed || n.Flagged {
				return
			}
			n.Revealed = true
			opened++
			if n.AdjacentMines == 0 {
				stack = append(stack, [2]int{n.Row, n.Col})
			}
		})
	}
	return opened
}

// ToggleFlag ставит или снимает флаг. Счетчик флагов не ограничивается числом мин.
func (e *Engine) ToggleFlag(row, col int) error {
	var err error
	e.mutate(func() bool {
		if err = e.board.checkBounds(row, col); err != nil {
			return false
		}
		if e.status.IsTerminal() {
			return false
		}
		cell := e.board.at(row, col)
		if cell.Revealed {
			return false
		}

		cell.Flagged = !cell.Flagged
		if cell.Flagged {
			e.flagCount++
		} else {
			e.flagCount--
		}
		return true
	})
	return err
}

// Restart выбрасывает текущее поле и начинает новую партию с теми же параметрами
func (e *Engine) Restart() {
	e.mutate(func() bool {
		e.resetLocked()
		return true
	})
}

// Configure меняет параметры и перезапускает партию.
// При ошибке валидации текущая партия не меняется.
func (e *Engine) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mutate(func() bool {
		e.cfg = cfg
		e.resetLocked()
		return true
	})
	return nil
}

// Tick пересчитывает прошедшее время, пока партия идет
func (e *Engine) Tick() {
	e.tick(nil)
}

func (e *Engine) tick(h *TimerHandle) {
	e.mutate(func() bool {
		if e.status != StatusInProgress {
			return false
		}
		// тик от уже остановленного таймера прошлой партии
		if h != nil && h != e.timer {
			return false
		}
		elapsed := int(e.now().Sub(e.startTime) / time.Second)
		if elapsed == e.elapsed {
			return false
		}
		e.elapsed = elapsed
		return true
	})
}

// Close останавливает таймер; сессия после этого не должна использоваться
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopTimerLocked()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// выполняет fn под блокировкой; если состояние изменилось,
// увеличивает версию и отдает снимок наблюдателю уже без блокировки
func (e *Engine) mutate(fn func() bool) {
	e.mu.Lock()
	if !fn() {
		e.mu.Unlock()
		return
	}
	e.version++

	notify := e.notify
	var snap Snapshot
	if notify != nil {
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

func (e *Engine) resetLocked() {
	e.stopTimerLocked()

	// размеры уже проверены Config.Validate
	board, _ := NewBoard(e.cfg.Rows, e.cfg.Cols)
	e.board = board
	e.status = StatusNotStarted
	e.minesPlaced = false
	e.flagCount = 0
	e.elapsed = 0
	e.startTime = time.Time{}
}

func (e *Engine) finishLocked(status Status) {
	e.status = status
	e.stopTimerLocked()
}

func (e *Engine) startTimerLocked() {
	if e.closed {
		return
	}
	e.timer = startTimer(e.tickInterval, e.tick)
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
