package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/sign"
	"github.com/swapspot/swapspot/internal/infrastructure/websocket"
	"go.uber.org/zap"
)

// PushHandler upgrades authenticated clients onto the notification push
// channel. Unread-count updates arrive through the hub as the broker
// delivers notification events.
type PushHandler struct {
	hub    *websocket.Hub
	jwt    *sign.JWTManager
	logger *logger.Logger
}

func NewPushHandler(hub *websocket.Hub, jwt *sign.JWTManager, logger *logger.Logger) *PushHandler {
	return &PushHandler{hub: hub, jwt: jwt, logger: logger}
}

// Serve authenticates via the same jwt cookie / bearer header the rest of
// the gateway uses, then hands the connection to the hub.
func (p *PushHandler) Serve(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "missing credential"}})
		return
	}
	claims, err := p.jwt.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "invalid token"}})
		return
	}

	conn, err := p.hub.Upgrade(c.Writer, c.Request)
	if err != nil {
		p.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewPushClient(conn, claims.UserID)
	if !p.hub.RegisterClient(client) {
		conn.Close()
		return
	}
	go client.WritePump(p.hub)
	go client.ReadPump(p.hub)
}
