package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/satprep-api/internal/service/duel"
)

// ContextGameCode is the gin context key holding the normalized game code
const ContextGameCode = "game_code"

// ExtractGameCode validates a game code URL parameter and stores it upper-cased
// under contextKey.
func ExtractGameCode(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, ok := duel.NormalizeCode(c.Param(paramName))
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":      fmt.Sprintf("Invalid %s", paramName),
				"error_type": "validation",
			})
			return
		}
		c.Set(contextKey, code)
		c.Next()
	}
}
