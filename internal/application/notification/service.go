package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/petersenmatthew/MEI/internal/domain/notification"
)

// Service 应用服务（用例编排）
type Service struct {
	domainRepo notification.Repository
	domainSvc  *notification.Service
	pusher     Pusher
}

// NewService 创建应用服务
func NewService(
	domainRepo notification.Repository,
	domainSvc *notification.Service,
	pusher Pusher,
) *Service {
	return &Service{
		domainRepo: domainRepo,
		domainSvc:  domainSvc,
		pusher:     pusher,
	}
}

// CreateAndPush 创建并推送通知（用例）
func (s *Service) CreateAndPush(dto *CreateNotificationDTO) (*NotificationDTO, error) {
	notif := &notification.Notification{
		ID:           uuid.New().String(),
		Conversation: dto.Conversation,
		Title:        dto.Title,
		Message:      dto.Message,
		Type:         notification.Type(dto.Type),
		CreatedAt:    time.Now(),
	}

	if err := s.domainSvc.Validate(notif); err != nil {
		return nil, err
	}

	if err := s.domainRepo.Save(notif); err != nil {
		return nil, err
	}

	// 推送失败不影响保存
	_ = s.pusher.Push(notif)

	return toDTO(notif), nil
}

// Notify 便捷入口：按类型创建并推送
func (s *Service) Notify(conversation, title, message string, typ notification.Type) {
	_, _ = s.CreateAndPush(&CreateNotificationDTO{
		Conversation: conversation,
		Title:        title,
		Message:      message,
		Type:         int(typ),
	})
}

// ListRecent 列出最近的通知
func (s *Service) ListRecent(limit int) ([]*NotificationDTO, error) {
	items, err := s.domainRepo.ListRecent(limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*NotificationDTO, len(items))
	for i, n := range items {
		dtos[i] = toDTO(n)
	}
	return dtos, nil
}

// toDTO 转换为 DTO
func toDTO(n *notification.Notification) *NotificationDTO {
	return &NotificationDTO{
		ID:           n.ID,
		Conversation: n.Conversation,
		Title:        n.Title,
		Message:      n.Message,
		Type:         int(n.Type),
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
	}
}
