package rag

import "fmt"

// ChunkRepository 片段仓储接口
// 持久化片段与向量，并提供会话内的相似度检索
type ChunkRepository interface {
	// Upsert 按内容 ID 写入片段，重复 ID 覆盖而非报错
	// 向量维度不等于 EmbeddingDim 时返回 *StorageError
	Upsert(chunk *Chunk) error

	// Search 在指定会话内做相似度检索
	// 过滤余弦相似度低于 minSimilarity 的片段，按时效加权得分降序返回前 limit 条
	Search(queryEmbedding []float32, conversationID string, limit int, minSimilarity float64) ([]*Chunk, error)

	// CountByConversation 统计各会话的片段数量
	CountByConversation() (map[string]int, error)

	// Count 统计片段总数
	Count() (int, error)

	// Clear 清空所有片段（全量重建前调用）
	Clear() error
}

// StorageError 存储层错误
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
