package notification

import (
	"sort"
	"sync"

	"github.com/petersenmatthew/MEI/internal/domain/notification"
)

// MemoryRepository 内存仓储实现
// 通知只服务于运行中的仪表盘，不需要跨重启留存
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*notification.Notification
}

// NewMemoryRepository 创建内存仓储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*notification.Notification),
	}
}

// Save 保存通知
func (r *MemoryRepository) Save(n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.ID] = n
	return nil
}

// ListRecent 按创建时间倒序列出最近 limit 条
func (r *MemoryRepository) ListRecent(limit int) ([]*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*notification.Notification, 0, len(r.items))
	for _, n := range r.items {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// 编译时检查接口实现
var _ notification.Repository = (*MemoryRepository)(nil)
