package rag

import (
	"fmt"
	"log/slog"

	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 检索默认参数
const (
	// DefaultSearchLimit 默认返回片段数
	DefaultSearchLimit = 8
	// DefaultMinSimilarity 默认相似度下界
	DefaultMinSimilarity = 0.4
)

// SearchService 片段检索服务
type SearchService struct {
	embedder  domainRAG.Embedder
	chunkRepo domainRAG.ChunkRepository
	logger    *slog.Logger
}

// NewSearchService 创建检索服务
func NewSearchService(embedder domainRAG.Embedder, chunkRepo domainRAG.ChunkRepository) *SearchService {
	return &SearchService{
		embedder:  embedder,
		chunkRepo: chunkRepo,
		logger:    log.NewModuleLogger("rag", "search"),
	}
}

// Search 在指定会话内检索与查询文本相关的片段
// limit/minSimilarity 传 0 使用默认值
func (s *SearchService) Search(query, conversationID string, limit int, minSimilarity float64) ([]*domainRAG.Chunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	queryVec, err := s.embedder.EmbedText(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.chunkRepo.Search(queryVec, conversationID, limit, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	s.logger.Debug("Search completed",
		"conversation_id", conversationID,
		"results", len(chunks),
	)
	return chunks, nil
}

// Stats 片段库统计
type Stats struct {
	TotalChunks    int            `json:"total_chunks"`
	ByConversation map[string]int `json:"by_conversation"`
}

// GetStats 统计片段库规模
func (s *SearchService) GetStats() (*Stats, error) {
	total, err := s.chunkRepo.Count()
	if err != nil {
		return nil, err
	}
	byConv, err := s.chunkRepo.CountByConversation()
	if err != nil {
		return nil, err
	}
	return &Stats{TotalChunks: total, ByConversation: byConv}, nil
}
