package agent

import "github.com/google/wire"

// ProviderSet 代理应用服务提供者集合
var ProviderSet = wire.NewSet(
	NewState,
	NewBehaviorModel,
	NewPromptBuilder,
	NewLoop,
)
