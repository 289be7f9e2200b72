package game

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// партия в состоянии InProgress с заранее известными минами
func startedEngine(t *testing.T, rows, cols int, mines [][2]int, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithTickInterval(0)}, opts...)
	e, err := NewEngine(Config{Rows: rows, Cols: cols, Mines: len(mines)}, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	layMines(t, e.board, mines...)
	e.minesPlaced = true
	e.status = StatusInProgress
	e.startTime = e.now()
	e.startTimerLocked()
	return e
}

func mustCell(t *testing.T, e *Engine, row, col int) Cell {
	t.Helper()
	c, err := e.board.Cell(row, col)
	if err != nil {
		t.Fatalf("Cell(%d,%d): %v", row, col, err)
	}
	return c
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cases := []Config{
		{Rows: 0, Cols: 3, Mines: 0},
		{Rows: 3, Cols: -1, Mines: 0},
		{Rows: 3, Cols: 3, Mines: -1},
		{Rows: 3, Cols: 3, Mines: 9},
	}
	for _, cfg := range cases {
		if _, err := NewEngine(cfg); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("NewEngine(%v): ожидалась ErrInvalidConfiguration, получено %v", cfg, err)
		}
	}
}

func TestNewEngine_NotStarted(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), WithTickInterval(0))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	snap := e.Snapshot()
	if snap.Status != StatusNotStarted || snap.GameOver || snap.Won {
		t.Fatalf("ожидалась не начатая партия, получено %+v", snap.Status)
	}
	if snap.Rows != 10 || snap.Cols != 10 || snap.Mines != 15 {
		t.Fatalf("ожидалась конфигурация по умолчанию, получено %dx%d/%d", snap.Rows, snap.Cols, snap.Mines)
	}
	if e.board.MinesPlaced() {
		t.Fatalf("мины не должны ставиться до первого хода")
	}
}

func TestReveal_FirstRevealPlacesMinesOutsideSafeZone(t *testing.T) {
	clock := newFakeClock()
	e, _ := NewEngine(Config{Rows: 9, Cols: 9, Mines: 10},
		WithRand(rand.New(rand.NewPCG(7, 11))), WithClock(clock.Now), WithTickInterval(0))

	if _, err := e.Reveal(4, 4); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if countMines(e.board) != 10 {
		t.Fatalf("ожидалось 10 мин, получено %d", countMines(e.board))
	}
	for r := 3; r <= 5; r++ {
		for c := 3; c <= 5; c++ {
			if mustCell(t, e, r, c).IsMine {
				t.Fatalf("мина в безопасной зоне (%d,%d)", r, c)
			}
		}
	}
	if st := e.Status(); st != StatusInProgress && st != StatusWon {
		t.Fatalf("после первого хода ожидалась идущая или выигранная партия, получено %s", st)
	}
	if !e.startTime.Equal(clock.Now()) {
		t.Fatalf("время старта не зафиксировано")
	}
}

func TestReveal_OneByTwoWithoutMinesWinsImmediately(t *testing.T) {
	e, err := NewEngine(Config{Rows: 1, Cols: 2, Mines: 0}, WithTickInterval(0))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	opened, err := e.Reveal(0, 0)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if opened != 2 {
		t.Fatalf("ожидалось 2 открытые клетки, получено %d", opened)
	}
	snap := e.Snapshot()
	if !snap.GameOver || !snap.Won || snap.Status != StatusWon {
		t.Fatalf("ожидалась победа, получено %s", snap.Status)
	}
	if e.timer != nil {
		t.Fatalf("таймер должен быть остановлен после победы")
	}
}

func TestReveal_SafeZoneLeavesNoRoomForMines(t *testing.T) {
	var notified int
	e, err := NewEngine(Config{Rows: 3, Cols: 3, Mines: 1},
		WithTickInterval(0), WithNotify(func(Snapshot) { notified++ }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	opened, err := e.Reveal(1, 1)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("ожидалась ErrInvalidConfiguration, получено %v", err)
	}
	if opened != 0 || notified != 0 {
		t.Fatalf("при ошибке ничего не должно меняться: opened=%d notified=%d", opened, notified)
	}
	if e.Status() != StatusNotStarted || mustCell(t, e, 1, 1).Revealed || e.timer != nil {
		t.Fatalf("сессия должна остаться в NotStarted без таймера")
	}
}

func TestReveal_CascadeFromFarCorner(t *testing.T) {
	e, _ := NewEngine(Config{Rows: 5, Cols: 5, Mines: 1}, WithRand(firstCandidate{}), WithTickInterval(0))

	opened, err := e.Reveal(4, 4)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !mustCell(t, e, 0, 0).IsMine {
		t.Fatalf("ожидалась мина в (0,0):\n%s", e.board)
	}
	if opened != 24 {
		t.Fatalf("ожидалось 24 открытые клетки, получено %d:\n%s", opened, e.board)
	}
	for _, p := range [][2]int{{0, 1}, {1, 0}, {1, 1}} {
		c := mustCell(t, e, p[0], p[1])
		if !c.Revealed || c.AdjacentMines != 1 {
			t.Errorf("граничная клетка (%d,%d) = %+v, ожидалась открытая с числом 1", p[0], p[1], c)
		}
	}
	if mustCell(t, e, 0, 0).Revealed {
		t.Fatalf("мина не должна открываться при победе")
	}
	if e.Status() != StatusWon {
		t.Fatalf("все безопасные клетки открыты, ожидалась победа, получено %s", e.Status())
	}
}

func TestReveal_FloodSkipsFlaggedCells(t *testing.T) {
	e := startedEngine(t, 5, 5, [][2]int{{0, 0}})
	if err := e.ToggleFlag(3, 3); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}

	opened, err := e.Reveal(4, 4)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if opened != 23 {
		t.Fatalf("ожидалось 23 открытые клетки, получено %d:\n%s", opened, e.board)
	}
	flagged := mustCell(t, e, 3, 3)
	if !flagged.Flagged || flagged.Revealed {
		t.Fatalf("клетка с флагом не должна открываться каскадом: %+v", flagged)
	}
	snap := e.Snapshot()
	if snap.Status != StatusInProgress || snap.FlagCount != 1 {
		t.Fatalf("ожидалась идущая партия с 1 флагом, получено %s/%d", snap.Status, snap.FlagCount)
	}
}

func TestReveal_NumberedCellDoesNotCascade(t *testing.T) {
	e := startedEngine(t, 5, 5, [][2]int{{0, 0}})
	opened, err := e.Reveal(1, 1)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if opened != 1 {
		t.Fatalf("клетка с числом открывается одна, открыто %d", opened)
	}
	if mustCell(t, e, 2, 2).Revealed {
		t.Fatalf("соседи клетки с числом не должны открываться")
	}
}

func TestReveal_MineLosesAndShowsAllMines(t *testing.T) {
	mines := [][2]int{{0, 0}, {3, 3}, {0, 3}}
	e := startedEngine(t, 4, 4, mines)
	timer := e.timer

	if _, err := e.Reveal(0, 3); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	snap := e.Snapshot()
	if !snap.GameOver || snap.Won || snap.Status != StatusLost {
		t.Fatalf("ожидался проигрыш, получено %s", snap.Status)
	}
	for _, p := range mines {
		v, _ := snap.Cell(p[0], p[1])
		if !v.Revealed || !v.IsMine {
			t.Errorf("мина (%d,%d) должна быть показана: %+v", p[0], p[1], v)
		}
	}
	if n := snap.RevealedSafe(); n != 0 {
		t.Fatalf("безопасные клетки не должны открываться при проигрыше, открыто %d", n)
	}
	if !timer.Stopped() || e.timer != nil {
		t.Fatalf("таймер должен быть остановлен")
	}
}

func TestReveal_WinOnLastSafeCell(t *testing.T) {
	e := startedEngine(t, 2, 2, [][2]int{{0, 0}})

	for _, p := range [][2]int{{0, 1}, {1, 0}} {
		if _, err := e.Reveal(p[0], p[1]); err != nil {
			t.Fatalf("Reveal: %v", err)
		}
		if e.Status() != StatusInProgress {
			t.Fatalf("партия закончилась раньше времени: %s", e.Status())
		}
	}
	if _, err := e.Reveal(1, 1); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	snap := e.Snapshot()
	if !snap.GameOver || !snap.Won {
		t.Fatalf("ожидалась победа, получено %s", snap.Status)
	}
}

func TestReveal_TerminalStateIsNoop(t *testing.T) {
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}})
	if _, err := e.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	before := e.Snapshot()

	opened, err := e.Reveal(2, 2)
	if err != nil || opened != 0 {
		t.Fatalf("Reveal после проигрыша: opened=%d err=%v", opened, err)
	}
	if err := e.ToggleFlag(2, 2); err != nil {
		t.Fatalf("ToggleFlag после проигрыша: %v", err)
	}
	after := e.Snapshot()
	if after.Version != before.Version || after.FlagCount != before.FlagCount {
		t.Fatalf("законченная партия не должна меняться")
	}
	if c := mustCell(t, e, 2, 2); c.Revealed || c.Flagged {
		t.Fatalf("клетка изменилась после проигрыша: %+v", c)
	}
}

func TestReveal_RevealedOrFlaggedIsNoop(t *testing.T) {
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}})
	if _, err := e.Reveal(0, 1); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if opened, _ := e.Reveal(0, 1); opened != 0 {
		t.Fatalf("повторное открытие должно быть no-op, открыто %d", opened)
	}

	if err := e.ToggleFlag(0, 0); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if opened, _ := e.Reveal(0, 0); opened != 0 || e.Status() != StatusInProgress {
		t.Fatalf("клетка с флагом не открывается: opened=%d status=%s", opened, e.Status())
	}
}

func TestOutOfBounds(t *testing.T) {
	e, _ := NewEngine(Config{Rows: 3, Cols: 4, Mines: 1}, WithTickInterval(0))
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 4}} {
		if _, err := e.Reveal(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Reveal(%d,%d): ожидалась ErrOutOfBounds, получено %v", p[0], p[1], err)
		}
		if err := e.ToggleFlag(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("ToggleFlag(%d,%d): ожидалась ErrOutOfBounds, получено %v", p[0], p[1], err)
		}
	}
	if e.Status() != StatusNotStarted {
		t.Fatalf("ошибка координат не должна запускать партию")
	}
}

func TestToggleFlag_DoubleToggleRestores(t *testing.T) {
	e, _ := NewEngine(Config{Rows: 4, Cols: 4, Mines: 2}, WithTickInterval(0))
	beforeCell := mustCell(t, e, 2, 1)
	beforeCount := e.Snapshot().FlagCount

	if err := e.ToggleFlag(2, 1); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if !mustCell(t, e, 2, 1).Flagged || e.Snapshot().FlagCount != beforeCount+1 {
		t.Fatalf("флаг не поставлен")
	}
	if err := e.ToggleFlag(2, 1); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if mustCell(t, e, 2, 1) != beforeCell || e.Snapshot().FlagCount != beforeCount {
		t.Fatalf("двойное переключение должно вернуть исходное состояние")
	}
}

func TestToggleFlag_RevealedCellIsNoop(t *testing.T) {
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}})
	if _, err := e.Reveal(2, 2); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	before := e.Snapshot().Version
	if err := e.ToggleFlag(2, 2); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	snap := e.Snapshot()
	if snap.FlagCount != 0 || snap.Version != before || mustCell(t, e, 2, 2).Flagged {
		t.Fatalf("флаг на открытой клетке ставиться не должен")
	}
}

func TestToggleFlag_CounterIsNotClamped(t *testing.T) {
	e, _ := NewEngine(Config{Rows: 3, Cols: 3, Mines: 1}, WithTickInterval(0))
	for c := 0; c < 3; c++ {
		for r := 0; r < 2; r++ {
			if err := e.ToggleFlag(r, c); err != nil {
				t.Fatalf("ToggleFlag: %v", err)
			}
		}
	}
	if got := e.Snapshot().FlagCount; got != 6 {
		t.Fatalf("счетчик флагов должен равняться числу флагов (6), получено %d", got)
	}
}

func TestRestart_CreatesFreshSession(t *testing.T) {
	e := startedEngine(t, 4, 4, [][2]int{{0, 0}})
	timer := e.timer
	_ = e.ToggleFlag(3, 0)
	_, _ = e.Reveal(3, 3)

	e.Restart()

	snap := e.Snapshot()
	if snap.Status != StatusNotStarted || snap.FlagCount != 0 || snap.ElapsedSeconds != 0 {
		t.Fatalf("после рестарта ожидалась новая партия, получено %+v", snap.Status)
	}
	if e.board.MinesPlaced() || countMines(e.board) != 0 || snap.RevealedSafe() != 0 {
		t.Fatalf("после рестарта поле должно быть пустым")
	}
	if !timer.Stopped() {
		t.Fatalf("старый таймер должен быть остановлен")
	}
	if snap.Rows != 4 || snap.Cols != 4 || snap.Mines != 1 {
		t.Fatalf("рестарт не должен менять параметры")
	}
}

func TestConfigure(t *testing.T) {
	e, _ := NewEngine(DefaultConfig(), WithTickInterval(0))

	if err := e.Configure(Config{Rows: 5, Cols: 8, Mines: 4}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	snap := e.Snapshot()
	if snap.Rows != 5 || snap.Cols != 8 || snap.Mines != 4 || snap.Status != StatusNotStarted {
		t.Fatalf("конфигурация не применена: %dx%d/%d %s", snap.Rows, snap.Cols, snap.Mines, snap.Status)
	}

	if err := e.Configure(Config{Rows: 0, Cols: 8, Mines: 4}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("ожидалась ErrInvalidConfiguration, получено %v", err)
	}
	if e.Config() != (Config{Rows: 5, Cols: 8, Mines: 4}) {
		t.Fatalf("неверная конфигурация не должна применяться")
	}
}

func TestTimer_ElapsedFreezesOnLoss(t *testing.T) {
	clock := newFakeClock()
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}}, WithClock(clock.Now))

	clock.Advance(2500 * time.Millisecond)
	e.Tick()
	if got := e.Snapshot().ElapsedSeconds; got != 2 {
		t.Fatalf("ожидалось 2 секунды, получено %d", got)
	}

	if _, err := e.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	clock.Advance(10 * time.Second)
	e.Tick()
	if got := e.Snapshot().ElapsedSeconds; got != 2 {
		t.Fatalf("после проигрыша время должно замереть на 2, получено %d", got)
	}
}

func TestTimer_StaleTickIsIgnored(t *testing.T) {
	clock := newFakeClock()
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}}, WithClock(clock.Now))
	old := e.timer

	if err := e.Configure(Config{Rows: 3, Cols: 3, Mines: 0}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	_ = e.ToggleFlag(0, 0)
	// первый ход новой партии запускает новый таймер
	if _, err := e.Reveal(2, 2); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if e.Status() != StatusInProgress {
		t.Fatalf("ожидалась идущая партия, получено %s", e.Status())
	}

	clock.Advance(5 * time.Second)
	e.tick(old)
	if got := e.Snapshot().ElapsedSeconds; got != 0 {
		t.Fatalf("тик старого таймера должен игнорироваться, elapsed=%d", got)
	}
	e.tick(e.timer)
	if got := e.Snapshot().ElapsedSeconds; got != 5 {
		t.Fatalf("тик текущего таймера должен учитываться, elapsed=%d", got)
	}
}

func TestTimer_BackgroundTicks(t *testing.T) {
	var calls atomic.Int64
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// каждый вызов часов сдвигает время на секунду
	clock := func() time.Time {
		return base.Add(time.Duration(calls.Add(1)) * time.Second)
	}

	updates := make(chan Snapshot, 16)
	e, _ := NewEngine(Config{Rows: 3, Cols: 3, Mines: 0},
		WithClock(clock), WithTickInterval(5*time.Millisecond),
		WithNotify(func(s Snapshot) {
			select {
			case updates <- s:
			default:
			}
		}))
	defer e.Close()

	// 3x3 без мин выигрывается первым ходом, поэтому ставим флаг, чтобы каскад остановился
	_ = e.ToggleFlag(2, 2)
	if _, err := e.Reveal(0, 0); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if e.Status() != StatusInProgress {
		t.Fatalf("ожидалась идущая партия, получено %s", e.Status())
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-updates:
			if s.ElapsedSeconds > 0 {
				return
			}
		case <-deadline:
			t.Fatalf("таймер не прислал ни одного тика")
		}
	}
}

func TestClose_StopsTimer(t *testing.T) {
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}})
	timer := e.timer
	e.Close()
	if !timer.Stopped() {
		t.Fatalf("Close должен останавливать таймер")
	}
}

func TestNotify_VersionIncreasesOnChange(t *testing.T) {
	var got []Snapshot
	e, _ := NewEngine(Config{Rows: 3, Cols: 3, Mines: 0},
		WithTickInterval(0), WithNotify(func(s Snapshot) { got = append(got, s) }))

	_ = e.ToggleFlag(0, 0)
	_ = e.ToggleFlag(0, 0)
	if len(got) != 2 || got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("ожидалось 2 уведомления с версиями 1,2, получено %d", len(got))
	}
	if got[0].FlagCount != 1 || got[1].FlagCount != 0 {
		t.Fatalf("снимки не отражают флаги: %d, %d", got[0].FlagCount, got[1].FlagCount)
	}

	_, _ = e.Reveal(-1, 0)
	if len(got) != 2 {
		t.Fatalf("ошибка не должна рассылать уведомление")
	}
	e.Restart()
	if len(got) != 3 || got[2].Status != StatusNotStarted {
		t.Fatalf("рестарт должен рассылать уведомление")
	}
}

func TestSnapshot_HidesUnrevealedCells(t *testing.T) {
	e := startedEngine(t, 3, 3, [][2]int{{0, 0}})
	_ = e.ToggleFlag(2, 2)

	snap := e.Snapshot()
	mine, _ := snap.Cell(0, 0)
	if mine.IsMine || mine.State != CellHidden {
		t.Fatalf("закрытая мина не должна быть видна: %+v", mine)
	}
	num, _ := snap.Cell(1, 1)
	if num.Adjacent != 0 || num.State != CellHidden {
		t.Fatalf("число закрытой клетки не должно быть видно: %+v", num)
	}
	flag, _ := snap.Cell(2, 2)
	if flag.State != CellFlagged || !flag.Flagged {
		t.Fatalf("ожидалась клетка с флагом: %+v", flag)
	}
	if _, ok := snap.Cell(3, 0); ok {
		t.Fatalf("Cell вне поля должен возвращать false")
	}
}
