package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	// EnvHTTPPort HTTP 端口覆盖
	EnvHTTPPort = "MEI_HTTP_PORT"
)

// Config 应用配置
// 代码内默认值 + 数据目录下 config.yaml 覆盖 + 少量环境变量覆盖
// 运行期可变的代理设置不在这里，存 sqlite（见 agent.Settings）
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	ChatStore ChatStoreConfig `yaml:"chat_store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Sender    SenderConfig    `yaml:"sender"`
	Agent     AgentConfig     `yaml:"agent"`
	Ingest    IngestConfig    `yaml:"ingest"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTPPort 固定端口，兼做单例锁
	HTTPPort string `yaml:"http_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 留空表示使用数据目录下的 mei.db
	Path string `yaml:"path"`
}

// ChatStoreConfig 外部消息库配置
type ChatStoreConfig struct {
	// Path 消息库路径，留空表示 ~/Library/Messages/chat.db
	Path string `yaml:"path"`
	// SelfName 生成片段文本时本人的标签
	SelfName string `yaml:"self_name"`
}

// EmbeddingConfig 向量化服务配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// LLMConfig 生成服务配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SenderConfig 发送桥接配置
type SenderConfig struct {
	// BridgeURL 本机发送桥接进程的地址
	BridgeURL string `yaml:"bridge_url"`
}

// AgentConfig 轮询循环配置
type AgentConfig struct {
	// PollIntervalSeconds 轮询间隔
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	// BatchSize 单次轮询最多处理的消息数
	BatchSize int `yaml:"batch_size"`
	// SelfSendBufferSeconds 发送后自发消息抑制缓冲
	SelfSendBufferSeconds int `yaml:"self_send_buffer_seconds"`
}

// IngestConfig 知识库摄取配置
type IngestConfig struct {
	// IntervalMinutes 摄取周期
	IntervalMinutes int `yaml:"interval_minutes"`
	// ConversationGapSeconds 对话分段的间隔阈值
	ConversationGapSeconds int `yaml:"conversation_gap_seconds"`
	// ChunkSize 滑动窗口大小（消息条数）
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap 相邻窗口重叠条数
	ChunkOverlap int `yaml:"chunk_overlap"`
	// MinChunkSize 低于此条数的窗口丢弃
	MinChunkSize int `yaml:"min_chunk_size"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// NewConfig 创建配置（默认值 + config.yaml 覆盖 + 环境变量覆盖）
func NewConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort: ":19970",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		ChatStore: ChatStoreConfig{
			Path:     "",
			SelfName: "Me",
		},
		Embedding: EmbeddingConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "text-embedding-3-small",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Sender: SenderConfig{
			BridgeURL: "http://127.0.0.1:19975",
		},
		Agent: AgentConfig{
			PollIntervalSeconds:   10,
			BatchSize:             50,
			SelfSendBufferSeconds: 5,
		},
		Ingest: IngestConfig{
			IntervalMinutes:        30,
			ConversationGapSeconds: 3600,
			ChunkSize:              10,
			ChunkOverlap:           3,
			MinChunkSize:           3,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	// config.yaml 覆盖（不存在时忽略）
	loadYAMLOverlay(cfg, filepath.Join(GetDataDir(), "config.yaml"))

	// 环境变量覆盖
	if port := os.Getenv(EnvHTTPPort); port != "" {
		cfg.Server.HTTPPort = port
	}

	return cfg
}

// loadYAMLOverlay 读取 yaml 文件覆盖配置，文件不存在或解析失败时保持默认值
func loadYAMLOverlay(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	// 解析失败时忽略，启动不应因坏配置文件而失败
	_ = yaml.Unmarshal(data, cfg)
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewChatStoreConfig 创建消息库配置
func NewChatStoreConfig(cfg *Config) *ChatStoreConfig {
	return &cfg.ChatStore
}

// NewEmbeddingConfig 创建向量化配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建生成服务配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewSenderConfig 创建发送桥接配置
func NewSenderConfig(cfg *Config) *SenderConfig {
	return &cfg.Sender
}

// NewAgentConfig 创建轮询循环配置
func NewAgentConfig(cfg *Config) *AgentConfig {
	return &cfg.Agent
}

// NewIngestConfig 创建摄取配置
func NewIngestConfig(cfg *Config) *IngestConfig {
	return &cfg.Ingest
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}
