package sender

import "github.com/google/wire"

// ProviderSet 发送桥依赖注入
var ProviderSet = wire.NewSet(NewBridgeSender)
