package events

import "time"

// ChatStoreEvent 消息库变更事件
// 由文件监听器在 chat.db（及其 WAL）发生写入时发布
type ChatStoreEvent struct {
	// Path 变更的文件路径
	Path string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *ChatStoreEvent) Type() EventType {
	return ChatStoreChanged
}

// Timestamp 实现 Event 接口
func (e *ChatStoreEvent) Timestamp() time.Time {
	return e.EventTime
}

// ModeChangedEvent 代理模式切换事件
type ModeChangedEvent struct {
	// OldMode 切换前模式
	OldMode string
	// NewMode 切换后模式
	NewMode string
	// Reason 切换原因（用户操作 / kill word）
	Reason string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *ModeChangedEvent) Type() EventType {
	return AgentModeChanged
}

// Timestamp 实现 Event 接口
func (e *ModeChangedEvent) Timestamp() time.Time {
	return e.EventTime
}

// ReplySentEvent 代理发出回复事件
type ReplySentEvent struct {
	// Conversation 会话标识
	Conversation string
	// Segments 实际发出的消息段数
	Segments int
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *ReplySentEvent) Type() EventType {
	return AgentReplySent
}

// Timestamp 实现 Event 接口
func (e *ReplySentEvent) Timestamp() time.Time {
	return e.EventTime
}

// ExchangeLoggedEvent 处理记录写入事件
type ExchangeLoggedEvent struct {
	// ExchangeID 处理记录 ID
	ExchangeID string
	// Conversation 会话标识
	Conversation string
	// Decision 裁决结果
	Decision string
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *ExchangeLoggedEvent) Type() EventType {
	return AgentExchangeLogged
}

// Timestamp 实现 Event 接口
func (e *ExchangeLoggedEvent) Timestamp() time.Time {
	return e.EventTime
}
