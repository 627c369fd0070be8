package notification

import "github.com/google/wire"

// ProviderSet 通知应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	// 注意：Pusher 接口绑定在基础设施层处理
)
