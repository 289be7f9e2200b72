package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Cell - одна клетка поля
type Cell struct {
	IsMine        bool `json:"is_mine"`
	Revealed      bool `json:"revealed"`
	Flagged       bool `json:"flagged"`
	AdjacentMines int  `json:"adjacent_mines"` // мин среди соседей, 0..8
	Row           int  `json:"row"`
	Col           int  `json:"col"`
}

// источник случайности для расстановки мин, *rand.Rand из math/rand/v2 подходит
type RandSource interface {
	IntN(n int) int
}

// Board хранит клетки плоским срезом построчно.
// Клетки не ссылаются на поле, соседи ищутся через индексацию.
type Board struct {
	rows   int
	cols   int
	cells  []Cell
	mines  int
	placed bool
}

// создает пустое поле без мин
func NewBoard(rows, cols int) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: board must be at least 1x1, got %dx%d", ErrInvalidConfiguration, rows, cols)
	}

	b := &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.cells[r*cols+c] = Cell{Row: r, Col: c}
		}
	}
	return b, nil
}

func (b *Board) Rows() int      { return b.rows }
func (b *Board) Cols() int      { return b.cols }
func (b *Board) MineCount() int { return b.mines }
func (b *Board) MinesPlaced() bool {
	return b.placed
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// Cell возвращает копию клетки
func (b *Board) Cell(row, col int) (Cell, error) {
	if err := b.checkBounds(row, col); err != nil {
		return Cell{}, err
	}
	return *b.at(row, col), nil
}

func (b *Board) checkBounds(row, col int) error {
	if !b.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d board", ErrOutOfBounds, row, col, b.rows, b.cols)
	}
	return nil
}

func (b *Board) at(row, col int) *Cell {
	return &b.cells[row*b.cols+col]
}

// вызывает fn для каждого соседа в пределах поля (до 8 клеток, без самой клетки)
func (b *Board) forEachNeighbor(row, col int, fn func(n *Cell)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if b.InBounds(r, c) {
				fn(b.at(r, c))
			}
		}
	}
}

func inSafeZone(row, col, centerRow, centerCol int) bool {
	return abs(row-centerRow) <= 1 && abs(col-centerCol) <= 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PlaceMines расставляет mineCount мин равномерно среди клеток вне зоны 3x3
// вокруг (excludeRow, excludeCol) и пересчитывает счетчики соседей.
// Если мин больше, чем подходящих клеток, поле не меняется.
func (b *Board) PlaceMines(excludeRow, excludeCol, mineCount int, rnd RandSource) error {
	if err := b.checkBounds(excludeRow, excludeCol); err != nil {
		return err
	}
	if b.placed {
		return fmt.Errorf("%w: mines already placed", ErrInvalidConfiguration)
	}
	if mineCount < 0 {
		return fmt.Errorf("%w: negative mine count %d", ErrInvalidConfiguration, mineCount)
	}

	candidates := make([]int, 0, len(b.cells))
	for i, cell := range b.cells {
		if !inSafeZone(cell.Row, cell.Col, excludeRow, excludeCol) {
			candidates = append(candidates, i)
		}
	}
	if mineCount > len(candidates) {
		return fmt.Errorf("%w: %d mines requested but only %d cells lie outside the safe zone around (%d,%d)",
			ErrInvalidConfiguration, mineCount, len(candidates), excludeRow, excludeCol)
	}

	// частичный Фишер-Йетс: первые mineCount элементов - равномерная выборка
	for i := 0; i < mineCount; i++ {
		j := i + rnd.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		b.cells[candidates[i]].IsMine = true
	}

	b.mines = mineCount
	b.placed = true
	b.countAdjacent()
	return nil
}

// пересчитывает AdjacentMines для всех клеток без мины
func (b *Board) countAdjacent() {
	for i := range b.cells {
		cell := &b.cells[i]
		if cell.IsMine {
			continue
		}
		count := 0
		b.forEachNeighbor(cell.Row, cell.Col, func(n *Cell) {
			if n.IsMine {
				count++
			}
		})
		cell.AdjacentMines = count
	}
}

// открывает все мины для показа после проигрыша, логику открытия не запускает
func (b *Board) revealMines() {
	for i := range b.cells {
		if b.cells[i].IsMine {
			b.cells[i].Revealed = true
		}
	}
}

func (b *Board) allSafeRevealed() bool {
	for _, cell := range b.cells {
		if !cell.IsMine && !cell.Revealed {
			return false
		}
	}
	return true
}

// String рисует поле для логов и тестов:
// "-" закрыта, "F" флаг, "*" мина, "." ноль, цифра - мины рядом
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			cell := b.at(r, c)
			switch {
			case cell.Revealed && cell.IsMine:
				sb.WriteByte('*')
			case cell.Revealed && cell.AdjacentMines == 0:
				sb.WriteByte('.')
			case cell.Revealed:
				sb.WriteByte(byte('0' + cell.AdjacentMines))
			case cell.Flagged:
				sb.WriteByte('F')
			default:
				sb.WriteByte('-')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// генератор по умолчанию: ChaCha8 с сидом из crypto/rand
func newDefaultRand() RandSource {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// запасной вариант, если crypto/rand недоступен
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}
	return rand.New(rand.NewChaCha8(seed))
}
