package storage

import (
	"database/sql"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
)

// 确保 KVRepository 实现了 domainAgent.KVStore 接口
var _ domainAgent.KVStore = (*KVRepository)(nil)

// KVRepository 检查点/设置键值仓储实现
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository 创建键值仓储实例
func NewKVRepository(db *sql.DB) domainAgent.KVStore {
	return &KVRepository{db: db}
}

// Save 写入键值
func (r *KVRepository) Save(key, value string) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`,
		key, value,
	)
	return err
}

// Load 读取键值
func (r *KVRepository) Load(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
