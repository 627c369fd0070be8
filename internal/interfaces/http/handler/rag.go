package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appRAG "github.com/petersenmatthew/MEI/internal/application/rag"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/response"
)

// RAGHandler 知识库检索与摄取处理器
type RAGHandler struct {
	search   *appRAG.SearchService
	ingestor *appRAG.Ingestor
}

// NewRAGHandler 创建知识库处理器
func NewRAGHandler(search *appRAG.SearchService, ingestor *appRAG.Ingestor) *RAGHandler {
	return &RAGHandler{search: search, ingestor: ingestor}
}

// searchRequest 检索请求
type searchRequest struct {
	Query          string  `json:"query" binding:"required"`
	ConversationID string  `json:"conversation_id" binding:"required"`
	Limit          int     `json:"limit"`
	MinSimilarity  float64 `json:"min_similarity"`
}

// Search 在会话内检索历史片段
// @Summary 检索历史片段
// @Tags 知识库
// @Accept json
// @Produce json
// @Param body body searchRequest true "检索条件"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /rag/search [post]
func (h *RAGHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request: "+err.Error())
		return
	}

	chunks, err := h.search.Search(req.Query, req.ConversationID, req.Limit, req.MinSimilarity)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "search failed: "+err.Error())
		return
	}
	response.Success(c, gin.H{"chunks": chunks, "count": len(chunks)})
}

// Stats 片段库统计
// @Summary 知识库统计
// @Tags 知识库
// @Produce json
// @Success 200 {object} response.Response
// @Router /rag/stats [get]
func (h *RAGHandler) Stats(c *gin.Context) {
	stats, err := h.search.GetStats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "failed to load stats")
		return
	}
	response.Success(c, stats)
}

// Ingest 手动触发一轮增量摄取
// @Summary 触发增量摄取
// @Tags 知识库
// @Produce json
// @Success 200 {object} response.Response
// @Router /rag/ingest [post]
func (h *RAGHandler) Ingest(c *gin.Context) {
	if err := h.ingestor.RunOnce(); err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "ingestion failed: "+err.Error())
		return
	}
	response.Success(c, gin.H{"status": "completed"})
}

// Reindex 清库并全量重建
// @Summary 全量重建知识库
// @Tags 知识库
// @Produce json
// @Success 200 {object} response.Response
// @Router /rag/reindex [post]
func (h *RAGHandler) Reindex(c *gin.Context) {
	if err := h.ingestor.Reindex(); err != nil {
		response.Error(c, http.StatusInternalServerError, 100004, "reindex failed: "+err.Error())
		return
	}
	response.Success(c, gin.H{"status": "completed"})
}
