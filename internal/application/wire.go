package application

import (
	"github.com/google/wire"

	"github.com/petersenmatthew/MEI/internal/application/agent"
	"github.com/petersenmatthew/MEI/internal/application/notification"
	"github.com/petersenmatthew/MEI/internal/application/rag"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	notification.ProviderSet,
	rag.ProviderSet,
	agent.ProviderSet,
)
