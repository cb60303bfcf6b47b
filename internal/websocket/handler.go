package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
)

var upgrader = gorillaWS.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// origin checks are left to the reverse proxy
		return true
	},
}

// WebSocketHandler upgrades the connection after validating the token
// passed as a query parameter (browsers cannot set headers on WS).
func WebSocketHandler(hub *Hub, validator *auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. read token from query params
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		// 2. validate token
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 3. upgrade connection
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
			return
		}

		// 4. create client
		client := NewClient(
			uuid.New().String(),
			claims.UserID(),
			hub,
			conn,
		)

		// 5. register client
		hub.Register <- client

		// 6. start read and write pumps
		go client.ReadPump()
		go client.WritePump()
	}
}
