package game

// состояния клетки для отрисовки
const (
	CellHidden   = "hidden"
	CellFlagged  = "flagged"
	CellRevealed = "revealed"
)

// CellView - клетка в том виде, в каком ее видит клиент.
// Мина и счетчик заполняются только у открытых клеток.
type CellView struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	State    string `json:"state"`
	Revealed bool   `json:"revealed"`
	Flagged  bool   `json:"flagged"`
	IsMine   bool   `json:"mine"`
	Adjacent int    `json:"adjacent"`
}

// Snapshot - копия состояния сессии только для чтения
type Snapshot struct {
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	Mines          int          `json:"mines"`
	Status         Status       `json:"status"`
	GameOver       bool         `json:"game_over"`
	Won            bool         `json:"won"`
	FlagCount      int          `json:"flag_count"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	Version        uint64       `json:"version"`
	Cells          [][]CellView `json:"cells"`
}

func (e *Engine) snapshotLocked() Snapshot {
	b := e.board
	snap := Snapshot{
		Rows:           b.rows,
		Cols:           b.cols,
		Mines:          e.cfg.Mines,
		Status:         e.status,
		GameOver:       e.status.IsTerminal(),
		Won:            e.status == StatusWon,
		FlagCount:      e.flagCount,
		ElapsedSeconds: e.elapsed,
		Version:        e.version,
		Cells:          make([][]CellView, b.rows),
	}

	for r := 0; r < b.rows; r++ {
		row := make([]CellView, b.cols)
		for c := 0; c < b.cols; c++ {
			cell := b.at(r, c)
			v := CellView{Row: r, Col: c, State: CellHidden, Flagged: cell.Flagged}
			switch {
			case cell.Revealed:
				v.State = CellRevealed
				v.Revealed = true
				v.IsMine = cell.IsMine
				v.Adjacent = cell.AdjacentMines
			case cell.Flagged:
				v.State = CellFlagged
			}
			row[c] = v
		}
		snap.Cells[r] = row
	}
	return snap
}

// Cell возвращает клетку снимка или false, если координаты вне поля
func (s Snapshot) Cell(row, col int) (CellView, bool) {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return CellView{}, false
	}
	return s.Cells[row][col], true
}

// количество открытых клеток без мин
func (s Snapshot) RevealedSafe() int {
	n := 0
	for _, row := range s.Cells {
		for _, c := range row {
			if c.Revealed && !c.IsMine {
				n++
			}
		}
	}
	return n
}
