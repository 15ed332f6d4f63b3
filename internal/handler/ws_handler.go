package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/satprep-api/internal/middleware"
	"github.com/yourusername/satprep-api/internal/service"
	"github.com/yourusername/satprep-api/internal/websocket"
)

// WSHandler upgrades connections that want GAME_UPDATED hints for one game.
// The socket never carries game state; clients refetch the snapshot.
type WSHandler struct {
	hub         *websocket.Hub
	duelService *service.DuelService
	tokens      middleware.TokenParser
	upgrader    gorillaws.Upgrader
}

// NewWSHandler creates the handler. An empty allowedOrigins list only admits
// non-browser clients (no Origin header).
func NewWSHandler(hub *websocket.Hub, duelService *service.DuelService, tokens middleware.TokenParser, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return &WSHandler{
		hub:         hub,
		duelService: duelService,
		tokens:      tokens,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// mobile apps, curl
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				log.Printf("[WS] Rejected origin %s", origin)
				return false
			},
		},
	}
}

// HandleConnection handles GET /ws/games/:code?token=<jwt>. Browsers cannot set
// headers on websocket requests, so the token comes as a query parameter.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token parameter", "error_type": "token_missing"})
		return
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
		return
	}

	code := gameCode(c)
	if _, err := h.duelService.GetGame(c.Request.Context(), code, claims.UserID); err != nil {
		status, errorType := gameErrorStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_type": errorType})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("[WS] Upgrade failed for user #%d game %s: %v", claims.UserID, code, err)
		return
	}

	log.Printf("[WS] User #%d subscribed to game %s", claims.UserID, code)
	websocket.NewClient(h.hub, conn, claims.UserID, code).Serve()
}
