package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"minesweeper_webapp/internal/game"
)

var (
	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minesweeper",
		Name:      "games_started_total",
		Help:      "Games that placed mines on the first reveal.",
	})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minesweeper",
		Name:      "games_finished_total",
		Help:      "Finished games by result.",
	}, []string{"result"})

	Intents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minesweeper",
		Name:      "intents_total",
		Help:      "Player intents by type and transport.",
	}, []string{"type", "transport"})

	CellsRevealed = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "minesweeper",
		Name:      "cells_revealed_per_move",
		Help:      "Cells opened by a single reveal, cascades included.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "minesweeper",
		Name:      "active_sessions",
		Help:      "Sessions held in memory.",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "minesweeper",
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	})
)

// ObserveFinish учитывает законченную партию
func ObserveFinish(status game.Status) {
	switch status {
	case game.StatusWon:
		GamesFinished.WithLabelValues("won").Inc()
	case game.StatusLost:
		GamesFinished.WithLabelValues("lost").Inc()
	}
}
