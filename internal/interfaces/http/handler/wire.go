package handler

import "github.com/google/wire"

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewAgentHandler,
	NewPolicyHandler,
	NewRAGHandler,
	NewExchangeHandler,
	NewNotificationHandler,
	NewWSHandler,
)
