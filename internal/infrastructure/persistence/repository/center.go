package repository

import (
	"context"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/domain/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"gorm.io/gorm"
)

type centerRepository struct {
	*BaseRepository[model.Center]
	database *gorm.DB
}

func NewCenterRepository(db *gorm.DB) repository.CenterRepository {
	return &centerRepository{
		BaseRepository: NewBaseRepository[model.Center](db),
		database:       db,
	}
}

func (r *centerRepository) List(ctx context.Context) ([]model.Center, error) {
	var centers []model.Center
	err := r.database.WithContext(ctx).Order("name").Find(&centers).Error
	return centers, err
}

type frontRepository struct {
	*BaseRepository[model.Front]
	database *gorm.DB
}

func NewFrontRepository(db *gorm.DB) repository.FrontRepository {
	return &frontRepository{
		BaseRepository: NewBaseRepository[model.Front](db, "Center"),
		database:       db,
	}
}

func (r *frontRepository) ListByCenter(ctx context.Context, centerID uint) ([]model.Front, error) {
	var fronts []model.Front
	err := r.database.WithContext(ctx).
		Where("center_id = ?", centerID).
		Order("name").
		Find(&fronts).Error
	return fronts, err
}

func (r *frontRepository) Reserve(ctx context.Context, frontID uint) error {
	tx := r.database.WithContext(ctx).
		Model(&model.Front{}).
		Where("id = ? AND reserved < capacity", frontID).
		UpdateColumn("reserved", gorm.Expr("reserved + 1"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.Conflict("front %d has no free box", frontID)
	}
	return nil
}

func (r *frontRepository) Release(ctx context.Context, frontID uint) error {
	tx := r.database.WithContext(ctx).
		Model(&model.Front{}).
		Where("id = ? AND reserved > 0", frontID).
		UpdateColumn("reserved", gorm.Expr("reserved - 1"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("front %d has no reservation to release", frontID)
	}
	return nil
}
