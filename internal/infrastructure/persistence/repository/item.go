package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"gorm.io/gorm"
)

type itemRepository struct {
	*BaseRepository[model.Item]
	database *gorm.DB
}

func NewItemRepository(db *gorm.DB) repository.ItemRepository {
	return &itemRepository{
		BaseRepository: NewBaseRepository[model.Item](db),
		database:       db,
	}
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Item, error) {
	var items []model.Item
	err := r.database.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&items).Error
	return items, err
}
