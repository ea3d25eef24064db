package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/cash-acceptor/internal/config"
	"go.uber.org/zap"
)

// Client WebSocket客户端
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration
}

// Upgrader WebSocket升级器
func newUpgrader(cfg *config.WebSocketConfig) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		// 设备服务部署在本地网络，允许所有来源
		CheckOrigin: func(r *http.Request) bool { return true },
	}
}

// ServeWS 处理WebSocket连接请求
func ServeWS(hub *Hub, cfg *config.WebSocketConfig, w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(cfg).Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	client := &Client{
		ID:           newClientID(),
		Hub:          hub,
		Conn:         conn,
		Send:         make(chan []byte, 64),
		writeTimeout: cfg.WriteTimeout,
		pingInterval: cfg.PingInterval,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump 向客户端写消息
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				// Hub关闭了发送通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息
// 事件流是单向的，读循环只负责发现连接断开
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
