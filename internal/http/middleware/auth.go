package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minesweeper_webapp/internal/logger"
	"minesweeper_webapp/internal/service"
)

// ключ gin.Context с id игрока
const PlayerIDKey = "player_id"

// AuthRequired принимает Authorization: Bearer <jwt> или ?token=
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(PlayerIDKey, playerID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), "player_id", playerID))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
