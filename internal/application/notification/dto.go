package notification

// CreateNotificationDTO 创建通知请求
type CreateNotificationDTO struct {
	Conversation string `json:"conversation"`
	Title        string `json:"title" binding:"required"`
	Message      string `json:"message" binding:"required"`
	Type         int    `json:"type"`
}

// NotificationDTO 通知响应
type NotificationDTO struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation,omitempty"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Type         int    `json:"type"`
	CreatedAt    string `json:"createdAt"`
}
