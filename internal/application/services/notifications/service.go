package notifications

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

type Service struct {
	notifications repository.NotificationRepository
	publisher     messaging.Publisher
	logger        *logger.Logger
	validate      *validator.Validate
}

func NewService(notifications repository.NotificationRepository, publisher messaging.Publisher, logger *logger.Logger) *Service {
	return &Service{
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
		validate:      validator.New(),
	}
}

type CreateNotificationRequest struct {
	UserID uint   `json:"userId" validate:"required"`
	Kind   string `json:"kind" validate:"required,max=50"`
	Text   string `json:"text" validate:"required,max=500"`
}

type MarkReadRequest struct {
	ID     uint `json:"id" validate:"required"`
	UserID uint `json:"userId" validate:"required"`
}

// CreateNotification writes the row and broadcasts a notification.created
// event carrying the user's fresh unread count. The broadcast is fire and
// forget; a broker outage never fails the write.
func (s *Service) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.BadRequest("invalid notification data: %v", err)
	}
	notification := &model.Notification{
		UserID: req.UserID,
		Kind:   req.Kind,
		Text:   req.Text,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("unread count unavailable after create",
			zap.Uint("userId", req.UserID), zap.Error(err))
		unread = -1
	}
	s.publisher.PublishNotificationCreated(messaging.NotificationCreatedEvent{
		UserID:      notification.UserID,
		Kind:        notification.Kind,
		Text:        notification.Text,
		UnreadCount: unread,
		CreatedAt:   time.Now().UTC(),
	})
	return notification, nil
}

func (s *Service) ListNotifications(ctx context.Context, userID uint) ([]model.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, req MarkReadRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperr.BadRequest("invalid mark-read request: %v", err)
	}
	return s.notifications.MarkRead(ctx, req.ID, req.UserID)
}

func (s *Service) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}
