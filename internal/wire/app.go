package wire

import (
	"database/sql"

	"log/slog"

	appAgent "github.com/petersenmatthew/MEI/internal/application/agent"
	appRAG "github.com/petersenmatthew/MEI/internal/application/rag"
	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/infrastructure/discovery"
	applog "github.com/petersenmatthew/MEI/internal/infrastructure/log"
	"github.com/petersenmatthew/MEI/internal/infrastructure/watcher"
	"github.com/petersenmatthew/MEI/internal/infrastructure/websocket"
	"github.com/petersenmatthew/MEI/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	wsHub      *websocket.Hub
	eventBus   events.EventBus
	watcher    *watcher.ChatWatcher
	ingestor   *appRAG.Ingestor
	loop       *appAgent.Loop
	advertiser *discovery.Advertiser
	db         *sql.DB
	logger     *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	eventBus events.EventBus,
	chatWatcher *watcher.ChatWatcher,
	ingestor *appRAG.Ingestor,
	loop *appAgent.Loop,
	advertiser *discovery.Advertiser,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer: httpServer,
		MCPServer:  mcpServer,
		wsHub:      wsHub,
		eventBus:   eventBus,
		watcher:    chatWatcher,
		ingestor:   ingestor,
		loop:       loop,
		advertiser: advertiser,
		db:         db,
		logger:     applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting MEI daemon")

	// 启动 WebSocket Hub（仪表盘推送通道）
	a.wsHub.Start()

	// 注册事件订阅者：代理事件推送到仪表盘
	a.setupEventSubscribers()

	// 启动消息库文件监听（变更触发额外轮询 / 摄取）
	// 监听失败只降级为纯定时轮询，不阻止启动
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.logger.Warn("Chat store watcher unavailable, falling back to interval polling",
				"error", err,
			)
		}
	}

	// 启动时先补一次全量摄取，再进入定时摄取
	go func() {
		if err := a.ingestor.RunOnce(); err != nil {
			a.logger.Error("Initial ingestion failed",
				"error", err,
			)
		}
	}()
	a.ingestor.Start()

	// 启动回复循环
	if err := a.loop.Start(); err != nil {
		return err
	}

	// 局域网服务发现（失败不影响本机使用）
	if err := a.advertiser.Start(); err != nil {
		a.logger.Warn("Failed to advertise service on LAN",
			"error", err,
		)
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("MEI daemon started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
	// 已在 HTTP 服务器中注册 /mcp/sse 端点

	return nil
}

// setupEventSubscribers 注册事件订阅者
// 模式切换、回复发出、处理记录写入都实时推送给 WebSocket 客户端
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	a.eventBus.SubscribeMultiple(
		[]events.EventType{
			events.AgentModeChanged,
			events.AgentReplySent,
			events.AgentExchangeLogged,
		},
		events.HandlerFunc(func(event events.Event) error {
			return a.wsHub.Broadcast(map[string]interface{}{
				"event":     string(event.Type()),
				"data":      event,
				"timestamp": event.Timestamp(),
			})
		}),
	)
	a.logger.Info("Dashboard subscribed to agent events")
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping MEI daemon")

	// 先停回复循环，确保不再有写入者
	a.loop.Stop()
	a.ingestor.Stop()

	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.advertiser.Stop()

	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("MEI daemon stopped successfully")

	return nil
}
