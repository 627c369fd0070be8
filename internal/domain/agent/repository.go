package agent

import "time"

// KVStore 检查点与设置的键值持久化接口
type KVStore interface {
	// Save 写入键值
	Save(key, value string) error
	// Load 读取键值，不存在时返回 ("", false, nil)
	Load(key string) (string, bool, error)
}

// 检查点键名
const (
	// KeyReplyCursor 回复循环已处理到的消息游标
	KeyReplyCursor = "last_processed_rowid"
	// KeyIngestCursor 知识库摄取已处理到的消息游标
	KeyIngestCursor = "last_ingested_rowid"
	// KeySettings 代理设置（JSON）
	KeySettings = "agent_settings"
)

// ContactPolicyRepository 联系人策略仓储接口
type ContactPolicyRepository interface {
	// Get 按联系人标识查策略，未配置时返回 ("", false, nil)
	Get(contactID string) (ContactPolicy, bool, error)
	// Set 配置联系人策略
	Set(contactID string, policy ContactPolicy) error
	// List 列出全部策略
	List() (map[string]ContactPolicy, error)
}

// StyleRepository 风格画像仓储接口
// 精确命中联系人标识，未命中时按显示名等备选字段做一次有界回退扫描
type StyleRepository interface {
	// Load 加载联系人画像，未找到时返回 (nil, nil)
	Load(contactID string) (*StyleProfile, error)
	// Save 写入画像
	Save(contactID string, profile *StyleProfile) error
}

// Exchange 一次处理记录
// 记录每条经过完整流水线的消息的结果，供仪表盘与影子模式复查
type Exchange struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Conversation string    `json:"conversation"`
	IncomingText string    `json:"incoming_text"`
	// Decision 最终裁决（sent/shadow/skip/defer/kill/error）
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	// GeneratedText 生成的完整回复（分段以 ||| 连接）
	GeneratedText string  `json:"generated_text,omitempty"`
	Confidence    float64 `json:"confidence"`
	WasSent       bool    `json:"was_sent"`
	WasShadow     bool    `json:"was_shadow"`
	// ReplyDelaySeconds 采样的拟人延迟
	ReplyDelaySeconds float64 `json:"reply_delay_seconds"`
	// RAGChunkIDs 检索到并用于提示的片段 ID
	RAGChunkIDs []string `json:"rag_chunk_ids,omitempty"`
}

// 处理记录的裁决值
const (
	ExchangeSent   = "sent"
	ExchangeShadow = "shadow"
	ExchangeSkip   = "skip"
	ExchangeDefer  = "defer"
	ExchangeKill   = "kill"
	ExchangeError  = "error"
)

// ExchangeRepository 处理记录仓储接口
type ExchangeRepository interface {
	// Save 追加一条处理记录
	Save(ex *Exchange) error
	// List 按时间倒序分页列出
	List(offset, limit int) ([]*Exchange, int, error)
	// ListByConversation 列出指定会话的处理记录，按时间倒序
	ListByConversation(conversationID string, limit int) ([]*Exchange, error)
}
