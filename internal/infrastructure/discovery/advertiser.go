package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// serviceType 局域网服务类型，仪表盘客户端据此找到守护进程
const serviceType = "_mei._tcp"

// Version 守护进程版本，构建时可通过 ldflags 覆盖
var Version = "dev"

// Advertiser mDNS 服务广播器
// 把守护进程的 HTTP 端口广播到局域网，手机端仪表盘免配置发现
type Advertiser struct {
	mu      sync.Mutex
	server  *zeroconf.Server
	port    int
	running bool
	logger  *slog.Logger
}

// NewAdvertiser 创建 mDNS 广播器
func NewAdvertiser(cfg *config.ServerConfig) *Advertiser {
	port, _ := strconv.Atoi(strings.TrimPrefix(cfg.HTTPPort, ":"))
	return &Advertiser{
		port:   port,
		logger: log.NewModuleLogger("discovery", "advertiser"),
	}
}

// Start 开始广播服务
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("advertiser is already running")
	}
	if a.port == 0 {
		return fmt.Errorf("invalid HTTP port for advertising")
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "mei-daemon"
	}

	txtRecords := []string{
		"version=" + Version,
		"port=" + strconv.Itoa(a.port),
	}

	a.logger.Info("starting mDNS advertiser",
		"instance", hostname,
		"port", a.port,
		"txt_records", txtRecords,
	)

	server, err := zeroconf.Register(
		hostname,    // 实例名称
		serviceType, // 服务类型
		"local.",    // 域
		a.port,      // 端口
		txtRecords,  // TXT 记录
		nil,         // 全部网络接口
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	a.running = true

	a.logger.Info("mDNS advertiser started", "service", serviceType)
	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.running = false

	a.logger.Info("mDNS advertiser stopped")
}

// IsRunning 是否正在广播
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
