package domain

import "time"

// гостевой игрок; id выдается при входе и лежит в subject токена
type Player struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// GameResult - итог законченной партии для истории игрока
type GameResult struct {
	Won            bool      `json:"won"`
	Rows           int       `json:"rows"`
	Cols           int       `json:"cols"`
	Mines          int       `json:"mines"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Flags          int       `json:"flags"`
	FinishedAt     time.Time `json:"finished_at"`
}
