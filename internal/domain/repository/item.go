package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id uint) (*model.Item, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uint) error
}
