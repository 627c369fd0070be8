package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
)

// recordingChunkRepo 记录检索参数
type recordingChunkRepo struct {
	fakeChunkRepo
	lastLimit         int
	lastMinSimilarity float64
}

func (r *recordingChunkRepo) Search(queryEmbedding []float32, conversationID string, limit int, minSimilarity float64) ([]*domainRAG.Chunk, error) {
	r.lastLimit = limit
	r.lastMinSimilarity = minSimilarity
	return r.fakeChunkRepo.Search(queryEmbedding, conversationID, limit, minSimilarity)
}

func TestSearchService_DefaultParameters(t *testing.T) {
	repo := &recordingChunkRepo{fakeChunkRepo: *newFakeChunkRepo()}
	svc := NewSearchService(&fakeEmbedder{}, repo)

	_, err := svc.Search("dinner plans", "alice", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultSearchLimit, repo.lastLimit)
	assert.Equal(t, DefaultMinSimilarity, repo.lastMinSimilarity)
}

func TestSearchService_ExplicitParameters(t *testing.T) {
	repo := &recordingChunkRepo{fakeChunkRepo: *newFakeChunkRepo()}
	svc := NewSearchService(&fakeEmbedder{}, repo)

	_, err := svc.Search("dinner plans", "alice", 3, 0.75)
	require.NoError(t, err)

	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0.75, repo.lastMinSimilarity)
}

func TestSearchService_EmptyQuery(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{}, newFakeChunkRepo())

	_, err := svc.Search("", "alice", 0, 0)
	assert.Error(t, err)
}

func TestSearchService_EmbedFailure(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{fail: true}, newFakeChunkRepo())

	_, err := svc.Search("dinner plans", "alice", 0, 0)
	assert.Error(t, err)
}

func TestSearchService_GetStats(t *testing.T) {
	repo := newFakeChunkRepo()
	require.NoError(t, repo.Upsert(&domainRAG.Chunk{ID: "a1", ConversationID: "alice"}))
	require.NoError(t, repo.Upsert(&domainRAG.Chunk{ID: "a2", ConversationID: "alice"}))
	require.NoError(t, repo.Upsert(&domainRAG.Chunk{ID: "b1", ConversationID: "bob"}))

	svc := NewSearchService(&fakeEmbedder{}, repo)

	stats, err := svc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, stats.ByConversation)
}
