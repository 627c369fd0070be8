package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/handler"
	"github.com/petersenmatthew/MEI/internal/interfaces/http/middleware"
	"github.com/petersenmatthew/MEI/internal/interfaces/mcp"

	_ "github.com/petersenmatthew/MEI/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	agentHandler *handler.AgentHandler,
	policyHandler *handler.PolicyHandler,
	ragHandler *handler.RAGHandler,
	exchangeHandler *handler.ExchangeHandler,
	notificationHandler *handler.NotificationHandler,
	wsHandler *handler.WSHandler,
	mcpServer *mcp.MCPServer,
	cfg *config.ServerConfig,
) *HTTPServer {
	router := gin.Default()
	router.Use(middleware.EnsureUTF8Body())

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 代理相关路由
		api.GET("/agent/status", agentHandler.Status)
		api.PUT("/agent/mode", agentHandler.SetMode)
		api.GET("/agent/settings", agentHandler.GetSettings)
		api.PUT("/agent/settings", agentHandler.UpdateSettings)

		// 联系人策略
		api.GET("/agent/policies", policyHandler.List)
		api.PUT("/agent/policies/:contact", policyHandler.Set)

		// 处理记录
		api.GET("/exchanges", exchangeHandler.List)
		api.GET("/exchanges/:conversation", exchangeHandler.ListByConversation)

		// 通知
		api.POST("/notifications", notificationHandler.Create)
		api.GET("/notifications", notificationHandler.ListRecent)

		// 知识库
		rag := api.Group("/rag")
		{
			rag.POST("/search", ragHandler.Search)
			rag.GET("/stats", ragHandler.Stats)
			rag.POST("/ingest", ragHandler.Ingest)
			rag.POST("/reindex", ragHandler.Reindex)
		}
	}

	// 仪表盘实时推送
	router.GET("/ws", wsHandler.Serve)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
