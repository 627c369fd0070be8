package notification

import "time"

// Notification 运营者通知实体
// 对应 defer/kill 裁决以及意外错误，常规 skip 不产生通知
type Notification struct {
	ID string
	// Conversation 关联的会话标识（可为空，如全局错误）
	Conversation string
	Title        string
	Message      string
	Type         Type
	CreatedAt    time.Time
}

// Type 通知类型
type Type int

const (
	// TypeInfo 信息通知
	TypeInfo Type = iota + 1
	// TypeWarning 警告通知
	TypeWarning
	// TypeError 错误通知
	TypeError
)
