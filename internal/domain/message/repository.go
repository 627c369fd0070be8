package message

import "time"

// StoreReader 消息库读取接口
// 对外部消息库的只读访问，所有查询基于 RowID 游标增量读取
type StoreReader interface {
	// Open 检查消息库可访问性
	Open() error

	// MaxRowID 返回消息库当前最大游标
	MaxRowID() (int64, error)

	// FetchSince 读取游标之后的消息，按 RowID 升序，最多 limit 条
	FetchSince(cursor int64, limit int) ([]*Message, error)

	// FetchRecent 读取指定会话最近的消息，按时间升序
	FetchRecent(conversationID string, limit int) ([]*Message, error)

	// HasRecentOutgoing 检查会话在 within 窗口内、after 时刻之后
	// 是否存在本人发出的消息
	HasRecentOutgoing(conversationID string, within time.Duration, after time.Time) (bool, error)
}

// Sender 消息发送接口
// 实际发送通道（桥接进程）在核心范围之外，这里只约定契约
type Sender interface {
	// Send 向指定会话发送一条消息
	Send(conversationID, text string) error
}

// SendError 发送失败错误
type SendError struct {
	ConversationID string
	Err            error
}

func (e *SendError) Error() string {
	return "send to " + e.ConversationID + " failed: " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}
