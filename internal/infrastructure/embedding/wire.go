package embedding

import "github.com/google/wire"

// ProviderSet 向量化客户端依赖注入
var ProviderSet = wire.NewSet(NewClient)
