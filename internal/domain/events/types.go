// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 消息库相关事件类型
const (
	// ChatStoreChanged 外部消息库文件变更事件（触发一次额外轮询）
	ChatStoreChanged EventType = "chatstore.changed"
)

// 代理相关事件类型
const (
	// AgentModeChanged 代理模式切换事件
	AgentModeChanged EventType = "agent.mode.changed"
	// AgentReplySent 代理发出回复事件
	AgentReplySent EventType = "agent.reply.sent"
	// AgentExchangeLogged 一条处理记录写入事件（推送仪表盘）
	AgentExchangeLogged EventType = "agent.exchange.logged"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
