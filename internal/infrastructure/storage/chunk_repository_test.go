package storage

import (
	"database/sql"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
)

// newTestDB 创建内存数据库并初始化表结构
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitDatabase(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// embeddingWith 生成 768 维向量，仅指定分量非零
func embeddingWith(components map[int]float32) []float32 {
	vec := make([]float32, domainRAG.EmbeddingDim)
	for i, v := range components {
		vec[i] = v
	}
	return vec
}

// unitAt 生成指定余弦相似度的单位向量（相对第 0 维基向量）
func unitAt(cos float64) []float32 {
	sin := math.Sqrt(1 - cos*cos)
	return embeddingWith(map[int]float32{0: float32(cos), 1: float32(sin)})
}

func newChunk(id, conv string, ts time.Time, embedding []float32) *domainRAG.Chunk {
	return &domainRAG.Chunk{
		ID:             id,
		ConversationID: conv,
		Timestamp:      ts,
		MessageCount:   5,
		Text:           "Me: hey\nAlice: hi",
		Topics:         []string{"greeting"},
		Embedding:      embedding,
	}
}

func TestChunkRepository_UpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	chunk := newChunk("abc123def456", "alice", time.Now(), unitAt(1.0))
	require.NoError(t, repo.Upsert(chunk))

	// 同 ID 重复写入应覆盖而不是新增
	chunk.Text = "Me: hey\nAlice: hi\nMe: what's up"
	require.NoError(t, repo.Upsert(chunk))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := repo.Search(unitAt(1.0), "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Me: hey\nAlice: hi\nMe: what's up", results[0].Text)
}

func TestChunkRepository_UpsertRejectsWrongDimension(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	chunk := newChunk("abc123def456", "alice", time.Now(), make([]float32, 10))
	err := repo.Upsert(chunk)
	require.Error(t, err)

	var storageErr *domainRAG.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "upsert", storageErr.Op)
}

func TestChunkRepository_SearchSimilarityThreshold(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	repo := &ChunkRepositoryImpl{db: db, now: func() time.Time { return now }}

	// 阈值为闭区间下界：恰好等于阈值的片段保留，低于阈值的过滤
	// 3-4-5 向量相对基向量的余弦恰为 0.6
	require.NoError(t, repo.Upsert(newChunk("chunk-below", "alice", now, unitAt(0.59))))
	require.NoError(t, repo.Upsert(newChunk("chunk-at", "alice", now, embeddingWith(map[int]float32{0: 3, 1: 4}))))

	results, err := repo.Search(unitAt(1.0), "alice", 10, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-at", results[0].ID)
	assert.InDelta(t, 0.6, results[0].Similarity, 1e-9)
}

func TestChunkRepository_SearchScopedToConversation(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	require.NoError(t, repo.Upsert(newChunk("chunk-alice", "alice", time.Now(), unitAt(1.0))))
	require.NoError(t, repo.Upsert(newChunk("chunk-bob", "bob", time.Now(), unitAt(1.0))))

	results, err := repo.Search(unitAt(1.0), "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-alice", results[0].ID)
}

func TestChunkRepository_SearchRecencyOrdering(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &ChunkRepositoryImpl{db: db, now: func() time.Time { return now }}

	// 相同相似度：新片段得分不低于旧片段
	require.NoError(t, repo.Upsert(newChunk("chunk-old", "alice", now.AddDate(0, 0, -90), unitAt(0.8))))
	require.NoError(t, repo.Upsert(newChunk("chunk-new", "alice", now.AddDate(0, 0, -1), unitAt(0.8))))

	results, err := repo.Search(unitAt(1.0), "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk-new", results[0].ID)
	assert.Equal(t, "chunk-old", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestChunkRepository_SearchLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	for i := 0; i < 8; i++ {
		chunk := newChunk(fmt.Sprintf("chunk-%d", i), "alice", time.Now(), unitAt(0.9))
		require.NoError(t, repo.Upsert(chunk))
	}

	results, err := repo.Search(unitAt(1.0), "alice", 3, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestChunkRepository_SearchRejectsWrongQueryDimension(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	_, err := repo.Search(make([]float32, 5), "alice", 10, 0)
	require.Error(t, err)

	var storageErr *domainRAG.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "search", storageErr.Op)
}

func TestChunkRepository_CountByConversation(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	require.NoError(t, repo.Upsert(newChunk("c1", "alice", time.Now(), unitAt(1.0))))
	require.NoError(t, repo.Upsert(newChunk("c2", "alice", time.Now(), unitAt(1.0))))
	require.NoError(t, repo.Upsert(newChunk("c3", "bob", time.Now(), unitAt(1.0))))

	counts, err := repo.CountByConversation()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, counts)
}

func TestChunkRepository_Clear(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepository(db)

	require.NoError(t, repo.Upsert(newChunk("c1", "alice", time.Now(), unitAt(1.0))))
	require.NoError(t, repo.Clear())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecencyAdjustedScore_MonotoneInAge(t *testing.T) {
	// boost 随 age 单调不增，半衰期内不放大
	prev := math.Inf(1)
	for _, age := range []float64{1, 3, 7, 14, 30, 180, 365} {
		score := recencyAdjustedScore(0.8, age)
		assert.LessOrEqual(t, score, prev, "age %.0f", age)
		assert.Greater(t, score, 0.8*similarityWeight, "age %.0f", age)
		prev = score
	}
	// 半衰期以内得分等于 sim*(0.7+0.3)
	assert.InDelta(t, 0.8, recencyAdjustedScore(0.8, 1), 1e-9)
	assert.InDelta(t, 0.8, recencyAdjustedScore(0.8, 7), 1e-9)
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	decoded := decodeEmbedding(encodeEmbedding(vec))
	assert.Equal(t, vec, decoded)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-9)
	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(a, []float32{0, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity(a, []float32{1, 0}))
}
