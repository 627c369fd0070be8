package infrastructure

import (
	"github.com/google/wire"

	"github.com/petersenmatthew/MEI/internal/infrastructure/chatstore"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/discovery"
	"github.com/petersenmatthew/MEI/internal/infrastructure/embedding"
	"github.com/petersenmatthew/MEI/internal/infrastructure/llm"
	"github.com/petersenmatthew/MEI/internal/infrastructure/notification"
	"github.com/petersenmatthew/MEI/internal/infrastructure/sender"
	"github.com/petersenmatthew/MEI/internal/infrastructure/storage"
	"github.com/petersenmatthew/MEI/internal/infrastructure/watcher"
	"github.com/petersenmatthew/MEI/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	chatstore.ProviderSet,
	embedding.ProviderSet,
	llm.ProviderSet,
	sender.ProviderSet,
	websocket.ProviderSet,
	notification.ProviderSet,
	discovery.ProviderSet,
	watcher.ProvideEventBus,
	watcher.ProvideChatWatcher,
)
