package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appAgent "github.com/petersenmatthew/MEI/internal/application/agent"
	appRAG "github.com/petersenmatthew/MEI/internal/application/rag"
	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/discovery"
	"github.com/petersenmatthew/MEI/internal/infrastructure/storage"
)

// MCPServer MCP 服务器
// 把历史检索和代理状态暴露给本机的 MCP 客户端（如操作者的编辑器助手）
type MCPServer struct {
	server    *mcp.Server
	handler   http.Handler
	search    *appRAG.SearchService
	state     *appAgent.State
	exchanges domainAgent.ExchangeRepository
	dbPath    string
}

// NewServer 创建 MCP 服务器
func NewServer(
	search *appRAG.SearchService,
	state *appAgent.State,
	exchanges domainAgent.ExchangeRepository,
	dbCfg *config.DatabaseConfig,
) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mei-daemon",
			Version: discovery.Version,
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:    server,
		search:    search,
		state:     state,
		exchanges: exchanges,
		dbPath:    storage.GetDBPath(dbCfg),
	}

	// 注册工具：search_history
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_history",
		Description: "Search the indexed iMessage history of a conversation. Parameters: query (string, required) - what to look for; conversation_id (string, required) - phone number, email or chat identifier; limit (int, optional) - max chunks to return, default 8. Returns: matching conversation chunks with similarity scores and timestamps.",
	}, mcpServer.searchHistoryTool)

	// 注册工具：get_agent_status
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_agent_status",
		Description: "Get the current status of the MEI auto-reply agent: mode (active/shadow/paused/killed), confidence threshold, active hours, database path, and indexed chunk count. No parameters required.",
	}, mcpServer.getAgentStatusTool)

	// 注册工具：get_recent_exchanges
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_exchanges",
		Description: "List the most recent messages the agent processed with the decision made for each (sent/shadow/skip/defer/kill/error). Parameters: limit (int, optional) - max entries, default 10.",
	}, mcpServer.getRecentExchangesTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}
