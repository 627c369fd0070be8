//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/petersenmatthew/MEI/internal/application"
	"github.com/petersenmatthew/MEI/internal/domain/notification"
	"github.com/petersenmatthew/MEI/internal/infrastructure"
	"github.com/petersenmatthew/MEI/internal/interfaces"
	"github.com/google/wire"
)

// InitializeAll 初始化所有服务（HTTP + MCP）
func InitializeAll() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		notification.ProviderSet,   // 领域层（按需引入）
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		NewApp,                     // 组合所有服务的应用结构
	)
	return nil, nil
}
