package log

import (
	"context"
	"log/slog"
)

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID = "request_id"

	// ConversationContextID 会话标识
	ConversationContextID = "conversation_id"

	// ContactContextID 联系人标识
	ContactContextID = "contact_id"

	// MessageContextID 消息游标
	MessageContextID = "message_rowid"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithConversationID 在上下文中添加会话标识
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, ConversationContextID, conversationID)
}

// WithContactID 在上下文中添加联系人标识
func WithContactID(ctx context.Context, contactID string) context.Context {
	return context.WithValue(ctx, ContactContextID, contactID)
}

// WithMessageRowID 在上下文中添加消息游标
func WithMessageRowID(ctx context.Context, rowID int64) context.Context {
	return context.WithValue(ctx, MessageContextID, rowID)
}

// FromContext 从上下文提取已知键，生成带字段的 logger
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if v := ctx.Value(RequestContextID); v != nil {
		logger = logger.With(slog.Any(RequestContextID, v))
	}
	if v := ctx.Value(ConversationContextID); v != nil {
		logger = logger.With(slog.Any(ConversationContextID, v))
	}
	if v := ctx.Value(ContactContextID); v != nil {
		logger = logger.With(slog.Any(ContactContextID, v))
	}
	if v := ctx.Value(MessageContextID); v != nil {
		logger = logger.With(slog.Any(MessageContextID, v))
	}
	return logger
}
