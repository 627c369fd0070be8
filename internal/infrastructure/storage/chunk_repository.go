package storage

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
)

// 确保 ChunkRepositoryImpl 实现了 domainRAG.ChunkRepository 接口
var _ domainRAG.ChunkRepository = (*ChunkRepositoryImpl)(nil)

// 时效加权参数
// score = sim*similarityWeight + sim*boost*recencyWeight
// boost = 1 / (1 + ln(ageDays/recencyHalfLifeDays))
const (
	similarityWeight    = 0.7
	recencyWeight       = 0.3
	recencyHalfLifeDays = 7.0
)

// ChunkRepositoryImpl 片段仓储实现
// 数据集规模小（单用户聊天历史），检索用会话内线性扫描，不建向量索引
type ChunkRepositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewChunkRepository 创建片段仓储实例
func NewChunkRepository(db *sql.DB) domainRAG.ChunkRepository {
	return &ChunkRepositoryImpl{db: db, now: time.Now}
}

// Upsert 按内容 ID 写入片段
// 维度不符时返回 *StorageError，重复 ID 覆盖
func (r *ChunkRepositoryImpl) Upsert(chunk *domainRAG.Chunk) error {
	if len(chunk.Embedding) != domainRAG.EmbeddingDim {
		return &domainRAG.StorageError{
			Op:  "upsert",
			Err: fmt.Errorf("embedding dimension %d, want %d", len(chunk.Embedding), domainRAG.EmbeddingDim),
		}
	}

	topicsJSON, _ := json.Marshal(chunk.Topics)

	query := `
		INSERT OR REPLACE INTO chunks (
			id, conversation_id, timestamp, message_count, chunk_text, topics, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(
		query,
		chunk.ID,
		chunk.ConversationID,
		chunk.Timestamp.Unix(),
		chunk.MessageCount,
		chunk.Text,
		string(topicsJSON),
		encodeEmbedding(chunk.Embedding),
	)
	if err != nil {
		return &domainRAG.StorageError{Op: "upsert", Err: err}
	}
	return nil
}

// Search 会话内相似度检索
// 线性扫描会话的全部片段：余弦过滤 → 时效加权 → 稳定排序取前 limit
func (r *ChunkRepositoryImpl) Search(queryEmbedding []float32, conversationID string, limit int, minSimilarity float64) ([]*domainRAG.Chunk, error) {
	if len(queryEmbedding) != domainRAG.EmbeddingDim {
		return nil, &domainRAG.StorageError{
			Op:  "search",
			Err: fmt.Errorf("query dimension %d, want %d", len(queryEmbedding), domainRAG.EmbeddingDim),
		}
	}

	query := `
		SELECT id, conversation_id, timestamp, message_count, chunk_text, topics, embedding
		FROM chunks
		WHERE conversation_id = ?
		ORDER BY rowid`

	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, &domainRAG.StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	now := r.now()
	var candidates []*domainRAG.Chunk

	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, &domainRAG.StorageError{Op: "search", Err: err}
		}

		sim := cosineSimilarity(queryEmbedding, chunk.Embedding)
		if sim < minSimilarity {
			continue
		}

		chunk.Similarity = sim
		chunk.Score = recencyAdjustedScore(sim, chunk.AgeDays(now))
		candidates = append(candidates, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, &domainRAG.StorageError{Op: "search", Err: err}
	}

	// 稳定排序保证同分片段按扫描顺序返回，结果可复现
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// CountByConversation 统计各会话的片段数量
func (r *ChunkRepositoryImpl) CountByConversation() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT conversation_id, COUNT(*) FROM chunks GROUP BY conversation_id`)
	if err != nil {
		return nil, &domainRAG.StorageError{Op: "count", Err: err}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var conv string
		var n int
		if err := rows.Scan(&conv, &n); err != nil {
			return nil, &domainRAG.StorageError{Op: "count", Err: err}
		}
		counts[conv] = n
	}
	return counts, rows.Err()
}

// Count 统计片段总数
func (r *ChunkRepositoryImpl) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, &domainRAG.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Clear 清空所有片段
func (r *ChunkRepositoryImpl) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM chunks`); err != nil {
		return &domainRAG.StorageError{Op: "clear", Err: err}
	}
	return nil
}

// scanChunk 扫描一行片段记录
func scanChunk(rows *sql.Rows) (*domainRAG.Chunk, error) {
	var chunk domainRAG.Chunk
	var ts int64
	var topicsJSON sql.NullString
	var blob []byte

	if err := rows.Scan(
		&chunk.ID,
		&chunk.ConversationID,
		&ts,
		&chunk.MessageCount,
		&chunk.Text,
		&topicsJSON,
		&blob,
	); err != nil {
		return nil, err
	}

	chunk.Timestamp = time.Unix(ts, 0)
	if topicsJSON.Valid && topicsJSON.String != "" {
		json.Unmarshal([]byte(topicsJSON.String), &chunk.Topics)
	}
	chunk.Embedding = decodeEmbedding(blob)
	return &chunk, nil
}

// recencyAdjustedScore 时效加权综合得分
// 温和上调近期片段，不做硬截断：近期对话模式更能代表当前语气
// ratio 下限取 1，保证 boost ∈ (0, 1] 且随 age 单调不增
func recencyAdjustedScore(similarity, ageDays float64) float64 {
	ratio := ageDays / recencyHalfLifeDays
	if ratio < 1 {
		ratio = 1
	}
	boost := 1.0 / (1.0 + math.Log(ratio))
	return similarity*similarityWeight + similarity*boost*recencyWeight
}

// cosineSimilarity 余弦相似度
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// encodeEmbedding 向量编码为 little-endian float32 BLOB
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding BLOB 解码为向量
func decodeEmbedding(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
