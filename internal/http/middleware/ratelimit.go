package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"minesweeper_webapp/internal/logger"
)

const rateWindow = time.Minute

var (
	redisMu     sync.RWMutex
	redisClient *redis.Client
)

// InitRedisRateLimiter подключает Redis для лимитов. Пустой addr или
// недоступный сервер - лимиты считаются в памяти процесса.
func InitRedisRateLimiter(addr, password string, db int) {
	redisMu.Lock()
	defer redisMu.Unlock()

	if addr == "" {
		redisClient = nil
		logger.Info("rate limiter: in-memory")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter: redis unavailable, using in-memory", "addr", addr, "error", err)
		_ = client.Close()
		redisClient = nil
		return
	}

	redisClient = client
	logger.Info("rate limiter: redis", "addr", addr)
}

// CloseRateLimiter закрывает соединение с Redis
func CloseRateLimiter() {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// счетчики окон в памяти
type memoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func newMemoryLimiter(now func() time.Time) *memoryLimiter {
	return &memoryLimiter{windows: make(map[string]*window), now: now}
}

// incr возвращает число запросов в текущем окне и время до его конца
func (m *memoryLimiter) incr(key string) (int, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= rateWindow {
		w = &window{start: now}
		m.windows[key] = w
		// старые окна чистим по ходу, без отдельной горутины
		if len(m.windows) > 10000 {
			for k, old := range m.windows {
				if now.Sub(old.start) >= rateWindow {
					delete(m.windows, k)
				}
			}
		}
	}
	w.count++
	return w.count, rateWindow - now.Sub(w.start)
}

func redisIncr(ctx context.Context, client *redis.Client, key string) (int, time.Duration, error) {
	n, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := client.Expire(ctx, key, rateWindow).Err(); err != nil {
			return 0, 0, err
		}
		return 1, rateWindow, nil
	}
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// ключ без срока остался после сбоя между INCR и EXPIRE
	if ttl < 0 {
		_ = client.Expire(ctx, key, rateWindow).Err()
		ttl = rateWindow
	}
	return int(n), ttl, nil
}

var ErrTooManyRequests = errors.New("too many requests")

// окна в памяти общие для REST и websocket
var memLimiter = newMemoryLimiter(time.Now)

// hit засчитывает запрос id в текущем окне.
// Ошибка Redis не блокирует запрос: считаем в памяти.
func hit(ctx context.Context, id string) (int, time.Duration) {
	key := fmt.Sprintf("ratelimit:%s", id)

	redisMu.RLock()
	client := redisClient
	redisMu.RUnlock()

	if client != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		count, reset, err := redisIncr(ctx, client, key)
		cancel()
		if err == nil {
			return count, reset
		}
		logger.Warn("rate limiter: redis error, falling back", "error", err)
	}
	return memLimiter.incr(key)
}

// Allow - тот же лимит для намерений вне gin (websocket); perMinute <= 0 - без лимита
func Allow(ctx context.Context, playerID string, perMinute int) bool {
	if perMinute <= 0 {
		return true
	}
	count, _ := hit(ctx, playerID)
	return count <= perMinute
}

// RateLimit ограничивает число запросов игрока (или ip) в минуту
func RateLimit(perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		id := c.GetString(PlayerIDKey)
		if id == "" {
			id = "ip:" + c.ClientIP()
		}
		count, reset := hit(c.Request.Context(), id)

		remaining := perMinute - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > perMinute {
			if reset <= 0 {
				reset = rateWindow
			}
			c.Header("Retry-After", strconv.Itoa(int(reset.Round(time.Second)/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": ErrTooManyRequests.Error()})
			return
		}
		c.Next()
	}
}
