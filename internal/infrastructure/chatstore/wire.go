package chatstore

import "github.com/google/wire"

// ProviderSet 消息库读取依赖注入
var ProviderSet = wire.NewSet(NewReader)
