package notification

import (
	"github.com/google/wire"

	appNotification "github.com/petersenmatthew/MEI/internal/application/notification"
	"github.com/petersenmatthew/MEI/internal/domain/notification"
)

// ProviderSet 通知基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	NewMemoryRepository,
	NewWebSocketPusher,
	// 接口绑定：domain.Repository -> infrastructure.Repository
	wire.Bind(
		new(notification.Repository),
		new(*MemoryRepository),
	),
	wire.Bind(
		new(appNotification.Pusher),
		new(*WebSocketPusher),
	),
)
