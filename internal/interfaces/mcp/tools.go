package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchHistoryInput 历史检索工具输入
type SearchHistoryInput struct {
	Query          string `json:"query" jsonschema:"检索内容"`
	ConversationID string `json:"conversation_id" jsonschema:"会话标识（电话号码、邮箱或群组 ID）"`
	Limit          int    `json:"limit,omitempty" jsonschema:"最多返回的片段数，默认 8"`
}

// HistoryChunk 检索结果片段
type HistoryChunk struct {
	ID         string  `json:"id" jsonschema:"片段 ID"`
	Text       string  `json:"text" jsonschema:"片段文本"`
	Timestamp  string  `json:"timestamp" jsonschema:"片段时间"`
	Similarity float64 `json:"similarity" jsonschema:"与查询的余弦相似度"`
	Score      float64 `json:"score" jsonschema:"含时近加权的最终得分"`
}

// SearchHistoryOutput 历史检索工具输出
type SearchHistoryOutput struct {
	Chunks []HistoryChunk `json:"chunks" jsonschema:"匹配的片段列表"`
	Count  int            `json:"count" jsonschema:"片段数量"`
}

// searchHistoryTool 在会话历史中检索片段
func (s *MCPServer) searchHistoryTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchHistoryInput,
) (*mcp.CallToolResult, SearchHistoryOutput, error) {
	chunks, err := s.search.Search(input.Query, input.ConversationID, input.Limit, 0)
	if err != nil {
		return nil, SearchHistoryOutput{}, fmt.Errorf("search failed: %w", err)
	}

	out := SearchHistoryOutput{Count: len(chunks)}
	for _, c := range chunks {
		out.Chunks = append(out.Chunks, HistoryChunk{
			ID:         c.ID,
			Text:       c.Text,
			Timestamp:  c.Timestamp.Format(time.RFC3339),
			Similarity: c.Similarity,
			Score:      c.Score,
		})
	}
	return nil, out, nil
}

// AgentStatusInput 代理状态工具输入（空输入）
type AgentStatusInput struct{}

// AgentStatusOutput 代理状态工具输出
type AgentStatusOutput struct {
	Mode                string  `json:"mode" jsonschema:"运行模式"`
	ConfidenceThreshold float64 `json:"confidence_threshold" jsonschema:"置信度阈值"`
	ActiveHoursEnabled  bool    `json:"active_hours_enabled" jsonschema:"是否启用活跃时段"`
	ActiveHours         string  `json:"active_hours,omitempty" jsonschema:"活跃时段窗口"`
	DBPath              string  `json:"db_path" jsonschema:"数据库路径"`
	IndexedChunks       int     `json:"indexed_chunks" jsonschema:"已索引的片段总数"`
}

// getAgentStatusTool 查询代理状态
func (s *MCPServer) getAgentStatusTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AgentStatusInput,
) (*mcp.CallToolResult, AgentStatusOutput, error) {
	settings := s.state.Settings()

	out := AgentStatusOutput{
		Mode:                string(settings.Mode),
		ConfidenceThreshold: settings.ConfidenceThreshold,
		ActiveHoursEnabled:  settings.ActiveHours.Enabled,
		DBPath:              s.dbPath,
	}
	if settings.ActiveHours.Enabled {
		out.ActiveHours = fmt.Sprintf("%02d:00-%02d:00", settings.ActiveHours.StartHour, settings.ActiveHours.EndHour)
	}

	if stats, err := s.search.GetStats(); err == nil {
		out.IndexedChunks = stats.TotalChunks
	}
	return nil, out, nil
}

// RecentExchangesInput 最近处理记录工具输入
type RecentExchangesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"最多返回的条数，默认 10"`
}

// ExchangeEntry 处理记录条目
type ExchangeEntry struct {
	Timestamp    string  `json:"timestamp" jsonschema:"处理时间"`
	Conversation string  `json:"conversation" jsonschema:"会话标识"`
	IncomingText string  `json:"incoming_text" jsonschema:"来信内容"`
	Decision     string  `json:"decision" jsonschema:"裁决结果"`
	Reason       string  `json:"reason,omitempty" jsonschema:"裁决原因"`
	Confidence   float64 `json:"confidence,omitempty" jsonschema:"生成置信度"`
}

// RecentExchangesOutput 最近处理记录工具输出
type RecentExchangesOutput struct {
	Exchanges []ExchangeEntry `json:"exchanges" jsonschema:"处理记录列表"`
	Total     int             `json:"total" jsonschema:"记录总数"`
}

// getRecentExchangesTool 列出最近的处理记录
func (s *MCPServer) getRecentExchangesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecentExchangesInput,
) (*mcp.CallToolResult, RecentExchangesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	items, total, err := s.exchanges.List(0, limit)
	if err != nil {
		return nil, RecentExchangesOutput{}, fmt.Errorf("list exchanges: %w", err)
	}

	out := RecentExchangesOutput{Total: total}
	for _, ex := range items {
		out.Exchanges = append(out.Exchanges, ExchangeEntry{
			Timestamp:    ex.Timestamp.Format(time.RFC3339),
			Conversation: ex.Conversation,
			IncomingText: ex.IncomingText,
			Decision:     ex.Decision,
			Reason:       ex.Reason,
			Confidence:   ex.Confidence,
		})
	}
	return nil, out, nil
}
