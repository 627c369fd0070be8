package rag

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

// fakeReader 内存消息库
type fakeReader struct {
	messages []*message.Message
}

func (r *fakeReader) Open() error { return nil }

func (r *fakeReader) MaxRowID() (int64, error) {
	var max int64
	for _, m := range r.messages {
		if m.RowID > max {
			max = m.RowID
		}
	}
	return max, nil
}

func (r *fakeReader) FetchSince(cursor int64, limit int) ([]*message.Message, error) {
	var out []*message.Message
	for _, m := range r.messages {
		if m.RowID > cursor {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeReader) FetchRecent(conversationID string, limit int) ([]*message.Message, error) {
	var conv []*message.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			conv = append(conv, m)
		}
	}
	if len(conv) > limit {
		conv = conv[len(conv)-limit:]
	}
	return conv, nil
}

func (r *fakeReader) HasRecentOutgoing(conversationID string, within time.Duration, after time.Time) (bool, error) {
	return false, nil
}

// fakeEmbedder 确定性向量生成
type fakeEmbedder struct {
	calls int
	fail  bool
}

func (e *fakeEmbedder) EmbedTexts(texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, &domainRAG.EmbeddingError{Kind: domainRAG.EmbeddingKindHTTP, Err: fmt.Errorf("boom")}
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, domainRAG.EmbeddingDim)
		vec[0] = 1
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedText(text string) ([]float32, error) {
	vectors, err := e.EmbedTexts([]string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// fakeChunkRepo 内存片段库
type fakeChunkRepo struct {
	chunks map[string]*domainRAG.Chunk
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: make(map[string]*domainRAG.Chunk)}
}

func (r *fakeChunkRepo) Upsert(chunk *domainRAG.Chunk) error {
	r.chunks[chunk.ID] = chunk
	return nil
}

func (r *fakeChunkRepo) Search(queryEmbedding []float32, conversationID string, limit int, minSimilarity float64) ([]*domainRAG.Chunk, error) {
	var out []*domainRAG.Chunk
	for _, c := range r.chunks {
		if c.ConversationID == conversationID {
			out = append(out, c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChunkRepo) CountByConversation() (map[string]int, error) {
	counts := make(map[string]int)
	for _, c := range r.chunks {
		counts[c.ConversationID]++
	}
	return counts, nil
}

func (r *fakeChunkRepo) Count() (int, error) { return len(r.chunks), nil }

func (r *fakeChunkRepo) Clear() error {
	r.chunks = make(map[string]*domainRAG.Chunk)
	return nil
}

// fakeKV 内存键值存储
type fakeKV struct {
	values map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{values: make(map[string]string)} }

func (kv *fakeKV) Save(key, value string) error {
	kv.values[key] = value
	return nil
}

func (kv *fakeKV) Load(key string) (string, bool, error) {
	v, ok := kv.values[key]
	return v, ok, nil
}

func ingestTestConfig() (*config.IngestConfig, *config.ChatStoreConfig) {
	return &config.IngestConfig{
			IntervalMinutes:        0,
			ConversationGapSeconds: 3600,
			ChunkSize:              10,
			ChunkOverlap:           3,
			MinChunkSize:           3,
		}, &config.ChatStoreConfig{
			SelfName: "Me",
		}
}

// conversationMessages 构造一个会话的连续消息
func conversationMessages(conv string, startRowID int64, n int) []*message.Message {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]*message.Message, n)
	for i := 0; i < n; i++ {
		msgs[i] = &message.Message{
			RowID:          startRowID + int64(i),
			Text:           fmt.Sprintf("%s message %d", conv, i),
			IsFromMe:       i%2 == 0,
			Timestamp:      base.Add(time.Duration(i) * 10 * time.Second),
			ConversationID: conv,
		}
	}
	return msgs
}

func TestIngestor_RunOnce(t *testing.T) {
	reader := &fakeReader{messages: conversationMessages("alice", 1, 8)}
	embedder := &fakeEmbedder{}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, embedder, repo, kv, ingestCfg, chatCfg)

	require.NoError(t, ing.RunOnce())

	count, _ := repo.Count()
	assert.Equal(t, 1, count)

	// 摄取游标持久化为批次内最大 RowID
	cursor, found, err := kv.Load(domainAgent.KeyIngestCursor)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "8", cursor)

	// 回复游标不受摄取影响
	_, found, _ = kv.Load(domainAgent.KeyReplyCursor)
	assert.False(t, found)
}

func TestIngestor_NoNewMessagesIsNoop(t *testing.T) {
	reader := &fakeReader{messages: conversationMessages("alice", 1, 8)}
	embedder := &fakeEmbedder{}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, embedder, repo, kv, ingestCfg, chatCfg)

	require.NoError(t, ing.RunOnce())
	firstCalls := embedder.calls

	// 第二轮没有新消息，不应再调用向量化
	require.NoError(t, ing.RunOnce())
	assert.Equal(t, firstCalls, embedder.calls)
}

func TestIngestor_EmbedFailureKeepsCursor(t *testing.T) {
	reader := &fakeReader{messages: conversationMessages("alice", 1, 8)}
	embedder := &fakeEmbedder{fail: true}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, embedder, repo, kv, ingestCfg, chatCfg)

	require.Error(t, ing.RunOnce())

	// 游标不推进，下一轮重试
	_, found, _ := kv.Load(domainAgent.KeyIngestCursor)
	assert.False(t, found)

	count, _ := repo.Count()
	assert.Equal(t, 0, count)

	// 修复后重试成功
	embedder.fail = false
	require.NoError(t, ing.RunOnce())
	count, _ = repo.Count()
	assert.Equal(t, 1, count)
}

func TestIngestor_SkipsGroupConversations(t *testing.T) {
	msgs := conversationMessages("chat123", 1, 8)
	for _, m := range msgs {
		m.IsGroup = true
	}
	reader := &fakeReader{messages: msgs}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, &fakeEmbedder{}, repo, kv, ingestCfg, chatCfg)

	require.NoError(t, ing.RunOnce())

	count, _ := repo.Count()
	assert.Equal(t, 0, count)
}

func TestIngestor_MultipleConversationsCursorMonotonic(t *testing.T) {
	msgs := append(
		conversationMessages("alice", 1, 5),
		conversationMessages("bob", 100, 5)...,
	)
	reader := &fakeReader{messages: msgs}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, &fakeEmbedder{}, repo, kv, ingestCfg, chatCfg)

	require.NoError(t, ing.RunOnce())

	counts, _ := repo.CountByConversation()
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, counts)

	cursor, _, _ := kv.Load(domainAgent.KeyIngestCursor)
	assert.Equal(t, "104", cursor)
}

func TestIngestor_Reindex(t *testing.T) {
	reader := &fakeReader{messages: conversationMessages("alice", 1, 8)}
	repo := newFakeChunkRepo()
	kv := newFakeKV()

	ingestCfg, chatCfg := ingestTestConfig()
	ing := NewIngestor(reader, &fakeEmbedder{}, repo, kv, ingestCfg, chatCfg)

	require.NoError(t, ing.RunOnce())

	// 植入一个过期片段，重建后应消失
	repo.chunks["stale"] = &domainRAG.Chunk{ID: "stale", ConversationID: "alice"}

	require.NoError(t, ing.Reindex())

	_, exists := repo.chunks["stale"]
	assert.False(t, exists)

	count, _ := repo.Count()
	assert.Equal(t, 1, count)
}
