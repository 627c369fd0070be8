package discovery

import "github.com/google/wire"

// ProviderSet 服务发现依赖注入
var ProviderSet = wire.NewSet(NewAdvertiser)
