package rag

import "time"

// EmbeddingDim 向量固定维度
// 嵌入模型输出 768 维，写入时校验
const EmbeddingDim = 768

// Chunk 对话片段模型
// 一段有界的对话文本及其向量，是检索的最小单位
// ID 由片段文本内容哈希派生，相同文本重复入库为幂等 upsert
type Chunk struct {
	// ID 内容哈希（MD5 前 6 字节的 hex 编码）
	ID string
	// ConversationID 会话标识
	ConversationID string
	// Timestamp 窗口内首条消息的时间
	Timestamp time.Time
	// MessageCount 窗口内消息条数
	MessageCount int
	// Text 拼接后的对话文本，每行 "{sender}: {text}"
	Text string
	// Topics 标签（可为空）
	Topics []string
	// Embedding 768 维向量
	Embedding []float32

	// Similarity 与查询向量的余弦相似度，仅检索时填充，不持久化
	Similarity float64
	// Score 时效加权后的综合得分，仅检索时填充，不持久化
	Score float64
}

// AgeDays 片段距 now 的天数，最小为 1
// 时效加权公式的输入：boost = 1 / (1 + ln(ageDays/7))
func (c *Chunk) AgeDays(now time.Time) float64 {
	days := now.Sub(c.Timestamp).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}
