package game

import (
	"sync"
	"time"
)

// TimerHandle - таймер одной сессии. Живет от первого открытия
// до победы, проигрыша, рестарта или закрытия сессии.
type TimerHandle struct {
	stop chan struct{}
	once sync.Once
}

// при interval <= 0 горутина не запускается, тики подаются вручную через Engine.Tick
func startTimer(interval time.Duration, onTick func(h *TimerHandle)) *TimerHandle {
	h := &TimerHandle{stop: make(chan struct{})}
	if interval > 0 {
		go h.run(interval, onTick)
	}
	return h
}

func (h *TimerHandle) run(interval time.Duration, onTick func(h *TimerHandle)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			onTick(h)
		}
	}
}

// Stop не ждет выхода горутины: она может ждать мьютекс движка,
// который держит вызывающий. Поздний тик отбросит сам движок.
func (h *TimerHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
}

func (h *TimerHandle) Stopped() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}
