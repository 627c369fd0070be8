// Package log 基于 slog 的结构化日志，所有模块经由 NewModuleLogger 取 logger
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	debugEnabled  bool
)

// Init 初始化日志系统，cfg 为 nil 时读环境变量
func Init(cfg *Config) {
	if cfg == nil {
		cfg = NewConfigFromEnv()
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler.WithAttrs([]slog.Attr{
		slog.String("service", "mei-daemon"),
	}))

	mu.Lock()
	defaultLogger = logger
	debugEnabled = level == slog.LevelDebug
	mu.Unlock()

	slog.SetDefault(logger)
}

// GetLogger 获取全局 logger，未初始化时按环境变量初始化
func GetLogger() *slog.Logger {
	mu.Lock()
	logger := defaultLogger
	mu.Unlock()
	if logger == nil {
		Init(nil)
		mu.Lock()
		logger = defaultLogger
		mu.Unlock()
	}
	return logger
}

// NewModuleLogger 生成带 module/component 字段的 logger
func NewModuleLogger(module, component string) *slog.Logger {
	return GetLogger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// IsDebugMode 当前是否为 debug 级别
func IsDebugMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugEnabled
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
