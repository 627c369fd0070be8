package message

import "time"

// Message 消息模型
// 从外部消息库读取后的规范化表示，读取后不可变
// RowID 由消息库分配，在单个库内严格递增，作为增量游标使用
type Message struct {
	// RowID 消息库游标（单库内严格递增）
	RowID int64
	// GUID 消息库分配的全局标识
	GUID string
	// Text 消息正文
	Text string
	// IsFromMe 是否为本人发送
	IsFromMe bool
	// Timestamp 消息时间
	Timestamp time.Time
	// ConversationID 会话标识（chat_identifier）
	ConversationID string
	// SenderID 发送者标识（handle id）
	SenderID string
	// DisplayName 会话显示名称
	DisplayName string
	// IsGroup 是否为群聊
	IsGroup bool
	// HasAttachment 是否携带附件
	HasAttachment bool
}

// Age 消息距当前时间的时长
func (m *Message) Age(now time.Time) time.Duration {
	return now.Sub(m.Timestamp)
}
