package watcher

import (
	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideChatWatcher 提供消息库监听器实例
func ProvideChatWatcher(cfg *config.ChatStoreConfig, eventBus events.EventBus) (*ChatWatcher, error) {
	return NewChatWatcher(DefaultWatchConfig(cfg), eventBus)
}
