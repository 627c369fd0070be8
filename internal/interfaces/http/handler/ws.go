package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
	ws "github.com/petersenmatthew/MEI/internal/infrastructure/websocket"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler 仪表盘 WebSocket 处理器
// 连接注册进 Hub 后只接收广播，入站消息一律忽略
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(hub *ws.Hub, cfg *config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // 仅监听本机/局域网，允许所有来源
			},
		},
		logger: log.NewModuleLogger("http", "websocket"),
	}
}

// Serve 升级连接并接入广播 Hub
// GET /ws
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &ws.Connection{Send: make(chan []byte, 256)}
	h.hub.Register(client)

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// writePump 把 Hub 广播写给客户端
func (h *WSHandler) writePump(conn *websocket.Conn, client *ws.Connection) {
	defer conn.Close()

	for data := range client.Send {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.hub.Unregister(client)
			return
		}
	}
	// Hub 已关闭发送通道
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump 只用来探测客户端断开
func (h *WSHandler) readPump(conn *websocket.Conn, client *ws.Connection) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
