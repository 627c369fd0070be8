package llm

import "github.com/google/wire"

// ProviderSet 生成客户端依赖注入
var ProviderSet = wire.NewSet(NewClient)
