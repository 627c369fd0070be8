package interfaces

import (
	"github.com/petersenmatthew/MEI/internal/interfaces/http"
	"github.com/petersenmatthew/MEI/internal/interfaces/mcp"
	"github.com/google/wire"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	mcp.ProviderSet,
)
