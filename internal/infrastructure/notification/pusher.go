package notification

import (
	"github.com/petersenmatthew/MEI/internal/application/notification"
	domainNotification "github.com/petersenmatthew/MEI/internal/domain/notification"
	"github.com/petersenmatthew/MEI/internal/infrastructure/websocket"
)

// WebSocketPusher WebSocket 推送实现
type WebSocketPusher struct {
	hub *websocket.Hub
}

// NewWebSocketPusher 创建 WebSocket 推送器
func NewWebSocketPusher(hub *websocket.Hub) *WebSocketPusher {
	return &WebSocketPusher{hub: hub}
}

// Push 推送到所有已连接的仪表盘页面
func (p *WebSocketPusher) Push(n *domainNotification.Notification) error {
	return p.hub.Broadcast(map[string]interface{}{
		"event": "notification",
		"data":  n,
	})
}

// 编译时检查接口实现
var _ notification.Pusher = (*WebSocketPusher)(nil)
