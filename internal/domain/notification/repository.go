package notification

// Repository 通知仓储接口
type Repository interface {
	Save(notification *Notification) error
	// ListRecent 按创建时间倒序列出最近 limit 条
	ListRecent(limit int) ([]*Notification, error)
}
