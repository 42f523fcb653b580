package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"gorm.io/gorm"
)

type exchangeRepository struct {
	*BaseRepository[model.Exchange]
	database *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) repository.ExchangeRepository {
	return &exchangeRepository{
		BaseRepository: NewBaseRepository[model.Exchange](db, "Item"),
		database:       db,
	}
}

func (r *exchangeRepository) SetState(ctx context.Context, id uint, state string) error {
	tx := r.database.WithContext(ctx).
		Model(&model.Exchange{}).
		Where("id = ?", id).
		Update("state", state)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("exchange %d not found", id)
	}
	return nil
}
