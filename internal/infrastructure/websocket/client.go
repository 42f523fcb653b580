package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type PushClient struct {
	conn   *websocket.Conn
	send   chan *PushMessage
	UserID uint
}

func NewPushClient(conn *websocket.Conn, userID uint) *PushClient {
	return &PushClient{
		conn:   conn,
		send:   make(chan *PushMessage, 256),
		UserID: userID,
	}
}

func (c *PushClient) Send() chan *PushMessage {
	return c.send
}

// ReadPump keeps the connection alive; clients never send application
// messages on the push channel.
func (c *PushClient) ReadPump(hub *Hub) {
	defer func() {
		hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hub.logger.Warn("push connection error",
					zap.Uint("userID", c.UserID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

func (c *PushClient) WritePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				hub.logger.Warn("failed to write push message",
					zap.Uint("userID", c.UserID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
