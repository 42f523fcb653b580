package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListByUser(ctx context.Context, userID uint) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uint, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}
