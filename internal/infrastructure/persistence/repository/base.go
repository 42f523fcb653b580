package repository

import (
	"context"
	"errors"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
	"gorm.io/gorm"
)

// BaseRepository provides the shared CRUD surface over gorm. Entity
// repositories embed it and add their own queries.
type BaseRepository[TEntity any] struct {
	database *gorm.DB
	preloads []string
}

func NewBaseRepository[TEntity any](db *gorm.DB, preloads ...string) *BaseRepository[TEntity] {
	return &BaseRepository[TEntity]{
		database: db,
		preloads: preloads,
	}
}

func (r *BaseRepository[TEntity]) Create(ctx context.Context, entity *TEntity) error {
	if err := r.database.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("record already exists")
		}
		return err
	}
	return nil
}

func (r *BaseRepository[TEntity]) GetByID(ctx context.Context, id uint) (*TEntity, error) {
	entity := new(TEntity)
	db := r.withPreloads(r.database.WithContext(ctx))

	err := db.First(entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("record %d not found", id)
		}
		return nil, err
	}
	return entity, nil
}

func (r *BaseRepository[TEntity]) Update(ctx context.Context, entity *TEntity) error {
	return r.database.WithContext(ctx).Save(entity).Error
}

func (r *BaseRepository[TEntity]) Delete(ctx context.Context, id uint) error {
	entity := new(TEntity)
	tx := r.database.WithContext(ctx).Delete(entity, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("record %d not found", id)
	}
	return nil
}

func (r *BaseRepository[TEntity]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, preload := range r.preloads {
		db = db.Preload(preload)
	}
	return db
}
