package log

import (
	"os"
	"strings"
)

// 环境变量名
const (
	EnvLogLevel  = "MEI_LOG_LEVEL"
	EnvLogFormat = "MEI_LOG_FORMAT"
	EnvLogSource = "MEI_LOG_SOURCE"
	EnvRunMode   = "MEI_ENV"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `json:"level"`

	// Format 日志格式：text, json
	Format string `json:"format"`

	// AddSource 是否在日志中记录源文件位置
	AddSource bool `json:"add_source"`
}

// NewConfigFromEnv 从环境变量创建配置
// MEI_ENV=development 时强制 debug 级别并附带源文件位置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr(EnvLogLevel, "info"),
		Format:    envOr(EnvLogFormat, "text"),
		AddSource: envFlag(EnvLogSource),
	}

	if strings.EqualFold(os.Getenv(EnvRunMode), "development") {
		cfg.Level = "debug"
		cfg.AddSource = true
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFlag(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
