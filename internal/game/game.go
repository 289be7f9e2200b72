package game

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// игра окончена: доска больше не меняется до рестарта
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrOutOfBounds          = errors.New("coordinates out of bounds")
)

const (
	DefaultRows  = 10
	DefaultCols  = 10
	DefaultMines = 15
)

// параметры партии: размеры поля и количество мин
type Config struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Mines int `json:"mines"`
}

func DefaultConfig() Config {
	return Config{Rows: DefaultRows, Cols: DefaultCols, Mines: DefaultMines}
}

// Validate проверяет размеры и количество мин.
// Окончательная проверка влезания мин делается при первом открытии,
// когда известна реальная (обрезанная краями) безопасная зона.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("%w: board must be at least 1x1, got %dx%d", ErrInvalidConfiguration, c.Rows, c.Cols)
	}
	if c.Mines < 0 {
		return fmt.Errorf("%w: negative mine count %d", ErrInvalidConfiguration, c.Mines)
	}
	if c.Mines >= c.Rows*c.Cols {
		return fmt.Errorf("%w: %d mines do not fit on a %dx%d board", ErrInvalidConfiguration, c.Mines, c.Rows, c.Cols)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("%dx%d/%d", c.Rows, c.Cols, c.Mines)
}
