package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"minesweeper_webapp/internal/logger"
)

var ErrInvalidToken = errors.New("invalid token")

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
	jwtTTL    = 24 * time.Hour
)

// InitJWT задает ключ подписи. Пустой секрет заменяется случайным:
// токены тогда живут до перезапуска процесса.
func InitJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()

	if secret == "" {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = hex.EncodeToString(buf)
		logger.Warn("JWT_SECRET not set, using ephemeral secret")
	}
	jwtSecret = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

func secret() []byte {
	jwtMu.RLock()
	s := jwtSecret
	jwtMu.RUnlock()
	if s == nil {
		InitJWT("", 0)
		return secret()
	}
	return s
}

// GenerateJWT выдает HS256 токен с player id в subject
func GenerateJWT(playerID string) (string, error) {
	jwtMu.RLock()
	ttl := jwtTTL
	jwtMu.RUnlock()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ParseJWT проверяет подпись и срок, возвращает player id
func ParseJWT(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
