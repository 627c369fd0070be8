package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

// GetDBPath 获取 MEI 数据库路径
// 默认 <数据目录>/mei.db，可由配置覆盖
func GetDBPath(cfg *config.DatabaseConfig) string {
	if cfg != nil && cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(config.GetDataDir(), "mei.db")
}

// OpenDB 打开数据库连接
func OpenDB(path string) (*sql.DB, error) {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB 打开并初始化数据库（wire provider）
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := OpenDB(GetDBPath(cfg))
	if err != nil {
		return nil, err
	}
	if err := InitDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDatabase 初始化表结构
func InitDatabase(db *sql.DB) error {
	// 片段表：向量以 little-endian float32 BLOB 存储
	createChunksSQL := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		message_count INTEGER NOT NULL,
		chunk_text TEXT NOT NULL,
		topics TEXT,
		embedding BLOB NOT NULL
	);`

	if _, err := db.Exec(createChunksSQL); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	createChunksIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_chunks_conversation ON chunks(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_timestamp ON chunks(timestamp);`

	if _, err := db.Exec(createChunksIndexSQL); err != nil {
		return fmt.Errorf("failed to create chunks indexes: %w", err)
	}

	// 处理记录表
	createExchangesSQL := `
	CREATE TABLE IF NOT EXISTS agent_log (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		conversation_id TEXT NOT NULL,
		incoming_text TEXT NOT NULL,
		decision TEXT NOT NULL,
		reason TEXT,
		generated_text TEXT,
		confidence REAL,
		was_sent INTEGER NOT NULL DEFAULT 0,
		was_shadow INTEGER NOT NULL DEFAULT 0,
		reply_delay_seconds REAL,
		rag_chunks_used TEXT
	);`

	if _, err := db.Exec(createExchangesSQL); err != nil {
		return fmt.Errorf("failed to create agent_log table: %w", err)
	}

	createExchangesIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_agent_log_timestamp ON agent_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_agent_log_conversation ON agent_log(conversation_id);`

	if _, err := db.Exec(createExchangesIndexSQL); err != nil {
		return fmt.Errorf("failed to create agent_log indexes: %w", err)
	}

	// 检查点与设置的键值表
	createSyncStateSQL := `
	CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := db.Exec(createSyncStateSQL); err != nil {
		return fmt.Errorf("failed to create sync_state table: %w", err)
	}

	// 联系人策略表
	createPoliciesSQL := `
	CREATE TABLE IF NOT EXISTS contact_policies (
		contact_id TEXT PRIMARY KEY,
		policy TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createPoliciesSQL); err != nil {
		return fmt.Errorf("failed to create contact_policies table: %w", err)
	}

	// 风格画像表（画像 JSON 原样存储）
	createStylesSQL := `
	CREATE TABLE IF NOT EXISTS style_profiles (
		contact_id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createStylesSQL); err != nil {
		return fmt.Errorf("failed to create style_profiles table: %w", err)
	}

	return nil
}
