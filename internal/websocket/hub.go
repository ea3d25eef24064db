package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// 消息类型
const (
	MessageTypeConnected = "connected"
	MessageTypeBillEvent = "bill_event"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Hub WebSocket连接管理中心
// 把驱动发出的纸币事件广播给所有已连接的界面
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	stopChan chan struct{}
	stopOnce sync.Once

	logger *zap.Logger
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		logger:     logger,
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop 停止Hub并断开所有客户端
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// BroadcastBillEvent 广播纸币事件
// 广播通道满时丢弃，不阻塞调用方
func (h *Hub) BroadcastBillEvent(event hardware.BillEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("事件序列化失败", zap.Error(err))
		return
	}

	msg := &Message{
		Type:      MessageTypeBillEvent,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("广播通道已满，事件被丢弃",
			zap.String("type", string(event.Type)))
	}
}

// ClientCount 当前客户端数量
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Int("clients", h.ClientCount()))

	// 发送连接确认
	msg := &Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().UnixMilli(),
	}
	if data, err := json.Marshal(msg); err == nil {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID))
}

// broadcastMessage 向所有客户端广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("消息序列化失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// 客户端发送缓冲已满，跳过这条消息
			h.logger.Debug("客户端发送缓冲已满",
				zap.String("client_id", client.ID))
		}
	}
}

// closeAll 关闭所有客户端连接
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// newClientID 生成客户端ID
func newClientID() string {
	return uuid.NewString()
}
